package webhooks

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/avelarde/comanda-backend/pkg/logger"
)

type serviceStub struct {
	calls int
	err   error
}

func (s *serviceStub) HandleEvent(_ context.Context, _ *stripe.Event) error {
	s.calls++
	return s.err
}

type guardStub struct {
	duplicate bool
	deleted   []string
}

func (g *guardStub) CheckAndMark(_ context.Context, eventID string) (bool, error) {
	return g.duplicate, nil
}

func (g *guardStub) Delete(_ context.Context, eventID string) error {
	g.deleted = append(g.deleted, eventID)
	return nil
}

type verifierStub struct {
	event stripe.Event
	err   error
}

func (v *verifierStub) VerifyWebhook(_ []byte, _ string) (stripe.Event, error) {
	return v.event, v.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func postWebhook(handler http.HandlerFunc, withSignature bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewBufferString(`{}`))
	if withSignature {
		req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestStripeWebhookMissingSignature(t *testing.T) {
	svc := &serviceStub{}
	handler := StripeWebhook(svc, &verifierStub{}, &guardStub{}, testLogger())

	rec := postWebhook(handler, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestStripeWebhookBadSignature(t *testing.T) {
	svc := &serviceStub{}
	verifier := &verifierStub{err: errors.New("signature mismatch")}
	handler := StripeWebhook(svc, verifier, &guardStub{}, testLogger())

	rec := postWebhook(handler, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestStripeWebhookProcessesEvent(t *testing.T) {
	svc := &serviceStub{}
	verifier := &verifierStub{event: stripe.Event{ID: "evt_1", Type: stripe.EventTypePaymentIntentSucceeded}}
	guard := &guardStub{}
	handler := StripeWebhook(svc, verifier, guard, testLogger())

	rec := postWebhook(handler, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.calls)
	assert.Empty(t, guard.deleted)
}

func TestStripeWebhookDuplicateSkipsService(t *testing.T) {
	svc := &serviceStub{}
	verifier := &verifierStub{event: stripe.Event{ID: "evt_1"}}
	handler := StripeWebhook(svc, verifier, &guardStub{duplicate: true}, testLogger())

	rec := postWebhook(handler, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestStripeWebhookFailureReleasesGuard(t *testing.T) {
	svc := &serviceStub{err: errors.New("db down")}
	verifier := &verifierStub{event: stripe.Event{ID: "evt_1"}}
	guard := &guardStub{}
	handler := StripeWebhook(svc, verifier, guard, testLogger())

	rec := postWebhook(handler, true)
	assert.NotEqual(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"evt_1"}, guard.deleted)
}
