package stripe

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/webhook"
)

// Intent is the subset of a payment intent the order flow needs.
type Intent struct {
	ID           string
	ClientSecret string
}

// PaymentsClient abstracts the gateway calls made by the order lifecycle
// so services can be exercised without touching Stripe.
type PaymentsClient interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, metadata map[string]string) (*Intent, error)
	VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error)
}

type paymentsClient struct {
	client     *Client
	maxRetries uint64
	backoff    time.Duration
}

// NewPaymentsClient wraps the shared Stripe client with the retry policy
// used for intent creation.
func NewPaymentsClient(client *Client, maxRetries int, backoff time.Duration) PaymentsClient {
	if client == nil {
		return nil
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	return &paymentsClient{
		client:     client,
		maxRetries: uint64(maxRetries),
		backoff:    backoff,
	}
}

// MinorUnits converts a major-unit amount to the gateway's integer minor
// units, rounding half away from zero on the cent boundary.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// CreateIntent creates a payment intent for the given amount, retrying
// transient gateway failures with constant backoff. Card and validation
// errors are returned immediately.
func (p *paymentsClient) CreateIntent(ctx context.Context, amount decimal.Decimal, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(MinorUnits(amount)),
		Currency: stripe.String(p.client.Currency()),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	var intent *stripe.PaymentIntent
	backoff := retry.WithMaxRetries(p.maxRetries, retry.NewConstant(p.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		params.Context = ctx
		pi, err := paymentintent.New(params)
		if err != nil {
			if isRetryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		intent = pi
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Intent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// VerifyWebhook checks the gateway signature against the raw request body
// and returns the parsed event. The payload must be the unmodified bytes
// read from the wire.
func (p *paymentsClient) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, p.client.SigningSecret())
}

func isRetryable(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode == http.StatusTooManyRequests {
			return true
		}
		return stripeErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	// Anything that never reached Stripe (dial/timeout) is worth one more try.
	return true
}
