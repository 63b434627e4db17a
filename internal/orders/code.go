package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const deliveryCodeDigits = 6

var deliveryCodeMax = big.NewInt(1_000_000)

// newDeliveryCode mints the customer-facing secret for cancel/delivery
// confirmation. Codes are random 6-digit strings; collisions across orders
// are acceptable because every lookup pairs the code with the order id.
func newDeliveryCode() (string, error) {
	n, err := rand.Int(rand.Reader, deliveryCodeMax)
	if err != nil {
		return "", fmt.Errorf("generating delivery code: %w", err)
	}
	return fmt.Sprintf("%0*d", deliveryCodeDigits, n.Int64()), nil
}
