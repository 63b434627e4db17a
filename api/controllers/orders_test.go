package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalorders "github.com/avelarde/comanda-backend/internal/orders"
	"github.com/avelarde/comanda-backend/pkg/db/models"
	"github.com/avelarde/comanda-backend/pkg/enums"
	"github.com/avelarde/comanda-backend/pkg/logger"
)

type ordersServiceStub struct {
	createInput  *internalorders.CreateInput
	createResult *internalorders.CreateResult
	patched      *internalorders.StaffPatch
	cancelCode   string
}

func (s *ordersServiceStub) Create(_ context.Context, input internalorders.CreateInput) (*internalorders.CreateResult, error) {
	s.createInput = &input
	if s.createResult != nil {
		return s.createResult, nil
	}
	return &internalorders.CreateResult{Order: &models.Order{ID: uuid.New()}}, nil
}

func (s *ordersServiceStub) ReconcilePaymentSuccess(context.Context, string) error { return nil }
func (s *ordersServiceStub) ReconcilePaymentFailure(context.Context, string) error { return nil }

func (s *ordersServiceStub) CancelByCustomer(_ context.Context, _ uuid.UUID, code string) (*models.Order, error) {
	s.cancelCode = code
	return &models.Order{Status: enums.OrderStatusCancelled}, nil
}

func (s *ordersServiceStub) ConfirmDelivery(_ context.Context, _ uuid.UUID, code string) (*models.Order, error) {
	return &models.Order{Status: enums.OrderStatusDelivered}, nil
}

func (s *ordersServiceStub) UpdateByStaff(_ context.Context, _ uuid.UUID, patch internalorders.StaffPatch) (*models.Order, error) {
	s.patched = &patch
	return &models.Order{}, nil
}

func (s *ordersServiceStub) Delete(context.Context, uuid.UUID) error { return nil }

func (s *ordersServiceStub) GetByID(context.Context, uuid.UUID) (*models.Order, error) {
	return &models.Order{}, nil
}

func (s *ordersServiceStub) List(context.Context, internalorders.ListParams) (*internalorders.ListResult, error) {
	return &internalorders.ListResult{}, nil
}

func discardLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestCreateOrderDecodesItems(t *testing.T) {
	svc := &ordersServiceStub{}
	handler := CreateOrder(svc, discardLogger())

	itemID := uuid.New()
	body := map[string]any{
		"customer_name":  "Dana",
		"customer_email": "dana@example.com",
		"customer_phone": "+15550001111",
		"order_type":     "pickup",
		"payment_method": "cash",
		"items": []map[string]any{
			{"menu_item_id": itemID.String(), "quantity": 2},
		},
	}
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.createInput)
	assert.Equal(t, enums.OrderTypePickup, svc.createInput.OrderType)
	assert.Equal(t, enums.PaymentMethodCash, svc.createInput.PaymentMethod)
	require.Len(t, svc.createInput.Items, 1)
	assert.Equal(t, itemID, svc.createInput.Items[0].MenuItemID)
	assert.Equal(t, 2, svc.createInput.Items[0].Quantity)
}

func TestCreateOrderRejectsUnknownPaymentMethod(t *testing.T) {
	svc := &ordersServiceStub{}
	handler := CreateOrder(svc, discardLogger())

	body := `{"customer_name":"Dana","customer_email":"dana@example.com","customer_phone":"+1555","order_type":"pickup","payment_method":"bitcoin","items":[{"menu_item_id":"` + uuid.NewString() + `","quantity":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.createInput)
}

func TestCancelOrderRequiresSixDigitCode(t *testing.T) {
	svc := &ordersServiceStub{}
	router := chi.NewRouter()
	router.Post("/orders/{orderId}/cancel", CancelOrder(svc, discardLogger()))

	req := httptest.NewRequest(http.MethodPost, "/orders/"+uuid.NewString()+"/cancel",
		bytes.NewBufferString(`{"delivery_code":"123"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.cancelCode)
}

func TestCancelOrderPassesCode(t *testing.T) {
	svc := &ordersServiceStub{}
	router := chi.NewRouter()
	router.Post("/orders/{orderId}/cancel", CancelOrder(svc, discardLogger()))

	req := httptest.NewRequest(http.MethodPost, "/orders/"+uuid.NewString()+"/cancel",
		bytes.NewBufferString(`{"delivery_code":"123456"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "123456", svc.cancelCode)
}

// Staff patches carrying server-owned fields must not be rejected; the
// unknown keys are simply dropped before the whitelist is applied.
func TestPatchOrderStripsServerOwnedFields(t *testing.T) {
	svc := &ordersServiceStub{}
	router := chi.NewRouter()
	router.Patch("/orders/{orderId}", PatchOrder(svc, discardLogger()))

	body := `{"status":"confirmed","delivery_code":"999999","total_amount":"0.01","payment_intent_id":"pi_evil"}`
	req := httptest.NewRequest(http.MethodPatch, "/orders/"+uuid.NewString(), bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.patched)
	require.NotNil(t, svc.patched.Status)
	assert.Equal(t, enums.OrderStatusConfirmed, *svc.patched.Status)
	assert.Nil(t, svc.patched.PaymentStatus)
	assert.Nil(t, svc.patched.CustomerName)
}

func TestPatchOrderRejectsInvalidStatus(t *testing.T) {
	svc := &ordersServiceStub{}
	router := chi.NewRouter()
	router.Patch("/orders/{orderId}", PatchOrder(svc, discardLogger()))

	req := httptest.NewRequest(http.MethodPatch, "/orders/"+uuid.NewString(),
		bytes.NewBufferString(`{"status":"teleported"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.patched)
}
