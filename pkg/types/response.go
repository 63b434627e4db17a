// Package types holds the wire shapes shared by every HTTP response.
package types

// SuccessEnvelope wraps every 2xx payload under a single "data" key so
// clients can unmarshal without sniffing the shape first.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public face of a failed request. Details carries
// field-level validation messages and is omitted when the error code
// does not allow them.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope mirrors SuccessEnvelope for non-2xx responses.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
