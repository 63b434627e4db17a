package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/avelarde/comanda-backend/pkg/config"
)

// Message is a single outbound email.
type Message struct {
	ToName    string
	ToEmail   string
	Subject   string
	PlainBody string
	HTMLBody  string
}

// Mailer delivers transactional email. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type sendgridMailer struct {
	client   *sendgrid.Client
	fromName string
	fromAddr string
}

// New builds a SendGrid-backed mailer from config.
func New(cfg config.SendgridConfig) (Mailer, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	fromAddr := strings.TrimSpace(cfg.DefaultFrom)
	if fromAddr == "" {
		return nil, errors.New("sendgrid from address is required")
	}

	return &sendgridMailer{
		client:   sendgrid.NewSendClient(apiKey),
		fromName: cfg.FromName,
		fromAddr: fromAddr,
	}, nil
}

// Send delivers the message. Delivery failures are returned as errors for
// the caller to log; they never abort the surrounding business operation.
func (m *sendgridMailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.ToEmail) == "" {
		return errors.New("recipient email is required")
	}

	from := mail.NewEmail(m.fromName, m.fromAddr)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	plain := msg.PlainBody
	if plain == "" {
		plain = msg.Subject
	}
	email := mail.NewSingleEmail(from, msg.Subject, to, plain, msg.HTMLBody)

	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
