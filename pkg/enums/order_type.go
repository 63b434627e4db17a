package enums

import "fmt"

// OrderType decides which address/pickup fields an order must carry.
type OrderType string

const (
	OrderTypeHomeDelivery OrderType = "homedelivery"
	OrderTypePickup       OrderType = "pickup"
)

var validOrderTypes = []OrderType{
	OrderTypeHomeDelivery,
	OrderTypePickup,
}

func (t OrderType) String() string {
	return string(t)
}

func (t OrderType) IsValid() bool {
	for _, candidate := range validOrderTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

func ParseOrderType(value string) (OrderType, error) {
	for _, candidate := range validOrderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order type %q", value)
}
