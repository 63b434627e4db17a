package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/avelarde/comanda-backend/pkg/errors"
)

// paymentReconciler is the slice of the order lifecycle the webhook needs.
type paymentReconciler interface {
	ReconcilePaymentSuccess(ctx context.Context, intentID string) error
	ReconcilePaymentFailure(ctx context.Context, intentID string) error
}

// Service routes verified gateway events into the order reconciler. Only
// payment-intent outcomes are handled; everything else is acknowledged and
// dropped.
type Service struct {
	orders paymentReconciler
}

func NewService(orders paymentReconciler) (*Service, error) {
	if orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order reconciler required")
	}
	return &Service{orders: orders}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		intentID, err := intentIDFromEvent(event)
		if err != nil {
			return err
		}
		return s.orders.ReconcilePaymentSuccess(ctx, intentID)
	case stripe.EventTypePaymentIntentPaymentFailed:
		intentID, err := intentIDFromEvent(event)
		if err != nil {
			return err
		}
		return s.orders.ReconcilePaymentFailure(ctx, intentID)
	default:
		return nil
	}
}

func intentIDFromEvent(event *stripe.Event) (string, error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent event")
	}
	if intent.ID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}
	return intent.ID, nil
}
