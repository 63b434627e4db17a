package notifications

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/avelarde/comanda-backend/pkg/config"
	"github.com/avelarde/comanda-backend/pkg/db/models"
	pkgerrors "github.com/avelarde/comanda-backend/pkg/errors"
	"github.com/avelarde/comanda-backend/pkg/mailer"
)

// CancelActor distinguishes who triggered a cancellation, which changes the
// email copy and the gating policy.
type CancelActor string

const (
	CancelActorCustomer CancelActor = "customer"
	CancelActorStaff    CancelActor = "staff"
)

// ContactInput is a message from the public contact form.
type ContactInput struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

// Service sends lifecycle emails. Every method except ContactMessage is
// best-effort: callers log returned errors and keep going.
type Service interface {
	OrderCreated(ctx context.Context, order *models.Order) error
	PaymentSucceeded(ctx context.Context, order *models.Order) error
	PaymentFailed(ctx context.Context, order *models.Order) error
	OrderCancelled(ctx context.Context, order *models.Order, actor CancelActor) error
	ContactMessage(ctx context.Context, input ContactInput) error
}

type service struct {
	mail   mailer.Mailer
	policy config.NotificationsConfig
	// contactTo receives contact-form messages and internal copies.
	contactTo string
}

// NewService builds the notification dispatcher. A nil mailer disables all
// outbound email, which keeps local development working without SendGrid.
func NewService(mail mailer.Mailer, policy config.NotificationsConfig, contactTo string) Service {
	return &service{
		mail:      mail,
		policy:    policy,
		contactTo: strings.TrimSpace(contactTo),
	}
}

func (s *service) OrderCreated(ctx context.Context, order *models.Order) error {
	if !s.policy.OnOrderCreated {
		return nil
	}
	var errs error
	errs = multierr.Append(errs, s.send(ctx, order, orderCreatedEmail(order)))
	if s.contactTo != "" {
		errs = multierr.Append(errs, s.sendInternal(ctx, newOrderAlertEmail(order)))
	}
	return errs
}

func (s *service) PaymentSucceeded(ctx context.Context, order *models.Order) error {
	if !s.policy.OnPaymentSuccess {
		return nil
	}
	return s.send(ctx, order, paymentSucceededEmail(order))
}

func (s *service) PaymentFailed(ctx context.Context, order *models.Order) error {
	if !s.policy.OnPaymentFailed {
		return nil
	}
	return s.send(ctx, order, paymentFailedEmail(order))
}

func (s *service) OrderCancelled(ctx context.Context, order *models.Order, actor CancelActor) error {
	switch actor {
	case CancelActorCustomer:
		if !s.policy.OnCustomerCancel {
			return nil
		}
	case CancelActorStaff:
		if !s.policy.OnStaffCancel {
			return nil
		}
	default:
		return fmt.Errorf("unknown cancel actor %q", actor)
	}
	return s.send(ctx, order, orderCancelledEmail(order, actor))
}

// ContactMessage is the one flow where email delivery is the point, so a
// failure surfaces as a Dependency error instead of being swallowed.
func (s *service) ContactMessage(ctx context.Context, input ContactInput) error {
	if s.contactTo == "" {
		return pkgerrors.New(pkgerrors.CodeDependency, "contact inbox not configured")
	}
	if err := s.sendInternal(ctx, contactEmail(input)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deliver contact message")
	}
	return nil
}

func (s *service) send(ctx context.Context, order *models.Order, msg mailer.Message) error {
	if s.mail == nil {
		return nil
	}
	msg.ToName = order.CustomerName
	msg.ToEmail = order.CustomerEmail
	return s.mail.Send(ctx, msg)
}

func (s *service) sendInternal(ctx context.Context, msg mailer.Message) error {
	if s.mail == nil {
		return nil
	}
	msg.ToEmail = s.contactTo
	return s.mail.Send(ctx, msg)
}
