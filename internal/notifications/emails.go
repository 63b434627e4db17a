package notifications

import (
	"fmt"
	"strings"

	"github.com/avelarde/comanda-backend/pkg/db/models"
	"github.com/avelarde/comanda-backend/pkg/enums"
	"github.com/avelarde/comanda-backend/pkg/mailer"
)

func orderCreatedEmail(order *models.Order) mailer.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nWe received your order %s.\n\n", order.CustomerName, shortID(order))
	writeItems(&b, order)
	fmt.Fprintf(&b, "\nTotal: %s\n", order.TotalAmount.StringFixed(2))
	fmt.Fprintf(&b, "Your delivery code is %s. Keep it handy: you need it to cancel the order or confirm delivery.\n", order.DeliveryCode)
	if order.PaymentMethod == enums.PaymentMethodCash {
		b.WriteString("Payment is due in cash on handover.\n")
	}
	return mailer.Message{
		Subject:   fmt.Sprintf("Order %s received", shortID(order)),
		PlainBody: b.String(),
	}
}

func newOrderAlertEmail(order *models.Order) mailer.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "New %s order %s from %s (%s).\n\n", order.OrderType, shortID(order), order.CustomerName, order.CustomerPhone)
	writeItems(&b, order)
	fmt.Fprintf(&b, "\nTotal: %s, payment: %s\n", order.TotalAmount.StringFixed(2), order.PaymentMethod)
	return mailer.Message{
		Subject:   fmt.Sprintf("New order %s", shortID(order)),
		PlainBody: b.String(),
	}
}

func paymentSucceededEmail(order *models.Order) mailer.Message {
	return mailer.Message{
		Subject: fmt.Sprintf("Order %s confirmed", shortID(order)),
		PlainBody: fmt.Sprintf(
			"Hi %s,\n\nWe received your payment of %s. Order %s is confirmed and being prepared.\n",
			order.CustomerName, order.TotalAmount.StringFixed(2), shortID(order)),
	}
}

func paymentFailedEmail(order *models.Order) mailer.Message {
	return mailer.Message{
		Subject: fmt.Sprintf("Payment for order %s failed", shortID(order)),
		PlainBody: fmt.Sprintf(
			"Hi %s,\n\nThe payment for order %s did not go through and the order was cancelled. No charge was made. Please place a new order if you still want it.\n",
			order.CustomerName, shortID(order)),
	}
}

func orderCancelledEmail(order *models.Order, actor CancelActor) mailer.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", order.CustomerName)
	if actor == CancelActorStaff {
		fmt.Fprintf(&b, "We are sorry, order %s was cancelled by the restaurant.\n", shortID(order))
	} else {
		fmt.Fprintf(&b, "Order %s was cancelled as requested.\n", shortID(order))
	}
	if order.PaymentMethod == enums.PaymentMethodOnline && order.Paid {
		fmt.Fprintf(&b, "Your payment of %s will be refunded to the original payment method within 5-7 business days.\n", order.TotalAmount.StringFixed(2))
	}
	return mailer.Message{
		Subject:   fmt.Sprintf("Order %s cancelled", shortID(order)),
		PlainBody: b.String(),
	}
}

func contactEmail(input ContactInput) mailer.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\n", input.Name, input.Email)
	if input.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", input.Phone)
	}
	fmt.Fprintf(&b, "\n%s\n", input.Message)
	return mailer.Message{
		Subject:   fmt.Sprintf("Contact form: %s", input.Name),
		PlainBody: b.String(),
	}
}

func writeItems(b *strings.Builder, order *models.Order) {
	for _, item := range order.Items {
		fmt.Fprintf(b, "  %d x %s @ %s\n", item.Quantity, item.Name, item.UnitPrice.StringFixed(2))
	}
}

// shortID keeps email subjects readable without exposing the full UUID.
func shortID(order *models.Order) string {
	id := order.ID.String()
	if len(id) >= 8 {
		return "#" + id[:8]
	}
	return "#" + id
}
