package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avelarde/comanda-backend/pkg/config"
	"github.com/avelarde/comanda-backend/pkg/db/models"
	"github.com/avelarde/comanda-backend/pkg/enums"
	pkgerrors "github.com/avelarde/comanda-backend/pkg/errors"
	"github.com/avelarde/comanda-backend/pkg/mailer"
)

type mailerStub struct {
	sent []mailer.Message
	err  error
}

func (m *mailerStub) Send(_ context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func testOrder() *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		CustomerName:  "Dana",
		CustomerEmail: "dana@example.com",
		CustomerPhone: "+15550001111",
		OrderType:     enums.OrderTypePickup,
		DeliveryCode:  "123456",
		TotalAmount:   decimal.RequireFromString("42.50"),
		PaymentMethod: enums.PaymentMethodOnline,
	}
}

func allOn() config.NotificationsConfig {
	return config.NotificationsConfig{
		OnOrderCreated:   true,
		OnPaymentSuccess: true,
		OnPaymentFailed:  true,
		OnCustomerCancel: true,
		OnStaffCancel:    true,
	}
}

func TestPolicyGating(t *testing.T) {
	stub := &mailerStub{}
	svc := NewService(stub, config.NotificationsConfig{}, "")

	order := testOrder()
	if err := svc.OrderCreated(context.Background(), order); err != nil {
		t.Fatalf("OrderCreated: %v", err)
	}
	if err := svc.PaymentSucceeded(context.Background(), order); err != nil {
		t.Fatalf("PaymentSucceeded: %v", err)
	}
	if err := svc.OrderCancelled(context.Background(), order, CancelActorStaff); err != nil {
		t.Fatalf("OrderCancelled: %v", err)
	}
	if len(stub.sent) != 0 {
		t.Fatalf("expected no emails with everything disabled, got %d", len(stub.sent))
	}
}

func TestOrderCreatedIncludesDeliveryCode(t *testing.T) {
	stub := &mailerStub{}
	svc := NewService(stub, allOn(), "")

	if err := svc.OrderCreated(context.Background(), testOrder()); err != nil {
		t.Fatalf("OrderCreated: %v", err)
	}
	if len(stub.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(stub.sent))
	}
	if !strings.Contains(stub.sent[0].PlainBody, "123456") {
		t.Fatal("order-created email should contain the delivery code")
	}
	if stub.sent[0].ToEmail != "dana@example.com" {
		t.Fatalf("unexpected recipient %q", stub.sent[0].ToEmail)
	}
}

func TestOrderCreatedCopiesOutletInbox(t *testing.T) {
	stub := &mailerStub{}
	svc := NewService(stub, allOn(), "kitchen@example.com")

	if err := svc.OrderCreated(context.Background(), testOrder()); err != nil {
		t.Fatalf("OrderCreated: %v", err)
	}
	if len(stub.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(stub.sent))
	}
	if stub.sent[1].ToEmail != "kitchen@example.com" {
		t.Fatalf("internal copy went to %q", stub.sent[1].ToEmail)
	}
}

func TestStaffCancelMentionsRefundWhenPaidOnline(t *testing.T) {
	stub := &mailerStub{}
	svc := NewService(stub, allOn(), "")

	order := testOrder()
	order.Paid = true
	if err := svc.OrderCancelled(context.Background(), order, CancelActorStaff); err != nil {
		t.Fatalf("OrderCancelled: %v", err)
	}
	if !strings.Contains(stub.sent[0].PlainBody, "refunded") {
		t.Fatal("staff cancellation of a paid online order should mention the refund")
	}

	stub.sent = nil
	order.Paid = false
	if err := svc.OrderCancelled(context.Background(), order, CancelActorStaff); err != nil {
		t.Fatalf("OrderCancelled: %v", err)
	}
	if strings.Contains(stub.sent[0].PlainBody, "refunded") {
		t.Fatal("unpaid order cancellation must not promise a refund")
	}
}

func TestContactMessageSurfacesDependencyError(t *testing.T) {
	stub := &mailerStub{err: errors.New("smtp down")}
	svc := NewService(stub, allOn(), "hello@example.com")

	err := svc.ContactMessage(context.Background(), ContactInput{
		Name:    "Sam",
		Email:   "sam@example.com",
		Message: "table for six?",
	})
	if err == nil {
		t.Fatal("expected error when delivery fails")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected Dependency error, got %v", err)
	}
}

func TestContactMessageWithoutInbox(t *testing.T) {
	svc := NewService(&mailerStub{}, allOn(), "")
	if err := svc.ContactMessage(context.Background(), ContactInput{Name: "Sam", Email: "s@e.c", Message: "hi"}); err == nil {
		t.Fatal("expected error when contact inbox is unset")
	}
}
