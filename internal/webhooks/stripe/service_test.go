package stripewebhook

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/avelarde/comanda-backend/pkg/errors"
)

type reconcilerStub struct {
	succeeded []string
	failed    []string
	err       error
}

func (r *reconcilerStub) ReconcilePaymentSuccess(_ context.Context, intentID string) error {
	r.succeeded = append(r.succeeded, intentID)
	return r.err
}

func (r *reconcilerStub) ReconcilePaymentFailure(_ context.Context, intentID string) error {
	r.failed = append(r.failed, intentID)
	return r.err
}

func intentEvent(t *testing.T, eventType stripe.EventType, intentID string) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"id": intentID})
	if err != nil {
		t.Fatalf("marshal event payload: %v", err)
	}
	return &stripe.Event{
		ID:   "evt_1",
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleEventSuccess(t *testing.T) {
	stub := &reconcilerStub{}
	svc, err := NewService(stub)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	event := intentEvent(t, stripe.EventTypePaymentIntentSucceeded, "pi_123")
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(stub.succeeded) != 1 || stub.succeeded[0] != "pi_123" {
		t.Fatalf("succeeded = %v", stub.succeeded)
	}
}

func TestHandleEventFailure(t *testing.T) {
	stub := &reconcilerStub{}
	svc, _ := NewService(stub)

	event := intentEvent(t, stripe.EventTypePaymentIntentPaymentFailed, "pi_456")
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(stub.failed) != 1 || stub.failed[0] != "pi_456" {
		t.Fatalf("failed = %v", stub.failed)
	}
}

func TestHandleEventIgnoresUnknownTypes(t *testing.T) {
	stub := &reconcilerStub{}
	svc, _ := NewService(stub)

	event := intentEvent(t, "charge.refunded", "pi_789")
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unknown types should be acknowledged, got %v", err)
	}
	if len(stub.succeeded)+len(stub.failed) != 0 {
		t.Fatal("unknown event types must not reach the reconciler")
	}
}

func TestHandleEventMissingIntentID(t *testing.T) {
	stub := &reconcilerStub{}
	svc, _ := NewService(stub)

	event := intentEvent(t, stripe.EventTypePaymentIntentSucceeded, "")
	err := svc.HandleEvent(context.Background(), event)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected Validation error, got %v", err)
	}
}

type idemStoreStub struct {
	keys map[string]bool
}

func (s *idemStoreStub) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *idemStoreStub) IdempotencyKey(scope, id string) string { return "cm:idempotency:" + scope + ":" + id }

func (s *idemStoreStub) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.keys, k)
	}
	return nil
}

func TestIdempotencyGuard(t *testing.T) {
	guard, err := NewIdempotencyGuard(&idemStoreStub{keys: map[string]bool{}}, time.Hour, "stripe")
	if err != nil {
		t.Fatalf("NewIdempotencyGuard: %v", err)
	}

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil {
		t.Fatalf("CheckAndMark: %v", err)
	}
	if seen {
		t.Fatal("first delivery should not be marked as seen")
	}

	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil {
		t.Fatalf("CheckAndMark: %v", err)
	}
	if !seen {
		t.Fatal("second delivery should be detected")
	}

	// After releasing the mark the event can be retried.
	if err := guard.Delete(context.Background(), "evt_1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil {
		t.Fatalf("CheckAndMark: %v", err)
	}
	if seen {
		t.Fatal("released event should be retryable")
	}
}
