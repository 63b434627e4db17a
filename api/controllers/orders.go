package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avelarde/comanda-backend/api/responses"
	"github.com/avelarde/comanda-backend/api/validators"
	internalorders "github.com/avelarde/comanda-backend/internal/orders"
	"github.com/avelarde/comanda-backend/pkg/enums"
	pkgerrors "github.com/avelarde/comanda-backend/pkg/errors"
	"github.com/avelarde/comanda-backend/pkg/logger"
	"github.com/avelarde/comanda-backend/pkg/pagination"
)

type createOrderRequest struct {
	CustomerName  string `json:"customer_name" validate:"required"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	CustomerPhone string `json:"customer_phone" validate:"required"`

	OrderType   string     `json:"order_type" validate:"required,oneof=homedelivery pickup"`
	AddressLine string     `json:"address_line"`
	City        string     `json:"city"`
	PostalCode  string     `json:"postal_code"`
	PickupTime  *time.Time `json:"pickup_time"`

	PaymentMethod string                   `json:"payment_method" validate:"required,oneof=cash online"`
	Items         []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type createOrderItemRequest struct {
	MenuItemID string `json:"menu_item_id" validate:"required,uuid"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
}

type deliveryCodeRequest struct {
	DeliveryCode string `json:"delivery_code" validate:"required,len=6"`
}

type createOrderResponse struct {
	Order        any    `json:"order"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// CreateOrder is the public checkout endpoint.
func CreateOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.CreateInput{
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			CustomerPhone: req.CustomerPhone,
			OrderType:     enums.OrderType(req.OrderType),
			AddressLine:   req.AddressLine,
			City:          req.City,
			PostalCode:    req.PostalCode,
			PickupTime:    req.PickupTime,
			PaymentMethod: enums.PaymentMethod(req.PaymentMethod),
		}
		for _, item := range req.Items {
			id, err := validators.ParsePathUUID(item.MenuItemID, "menu_item_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Items = append(input.Items, internalorders.CreateItemInput{
				MenuItemID: id,
				Quantity:   item.Quantity,
			})
		}

		result, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, createOrderResponse{
			Order:        result.Order,
			ClientSecret: result.ClientSecret,
		})
	}
}

// CancelOrder lets the customer cancel an unpaid order using the delivery
// code from the confirmation email.
func CancelOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req deliveryCodeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CancelByCustomer(r.Context(), orderID, req.DeliveryCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ConfirmDelivery marks an order delivered once the customer hands over the
// delivery code.
func ConfirmDelivery(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req deliveryCodeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ConfirmDelivery(r.Context(), orderID, req.DeliveryCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type listOrdersResponse struct {
	Orders     any    `json:"orders"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// ListOrders is the staff-side paginated order list.
func ListOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := internalorders.ListParams{Limit: limit}
		if raw := strings.TrimSpace(r.URL.Query().Get("cursor")); raw != "" {
			cursor, err := pagination.ParseCursor(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
				return
			}
			params.Cursor = cursor
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.OrderStatus(raw)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			params.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("payment_status")); raw != "" {
			status := enums.PaymentStatus(raw)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status filter"))
				return
			}
			params.PaymentStatus = &status
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listOrdersResponse{Orders: result.Orders, NextCursor: result.NextCursor})
	}
}

// GetOrder returns one order with its line items.
func GetOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetByID(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type patchOrderRequest struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"payment_status"`
	Paid          *bool   `json:"paid"`
	CustomerName  *string `json:"customer_name"`
	CustomerPhone *string `json:"customer_phone"`
}

// PatchOrder applies staff edits. Decoding deliberately ignores unknown
// fields so server-owned attributes like the delivery code or amounts are
// dropped rather than rejected, whatever the client sends.
func PatchOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req patchOrderRequest
		defer io.Copy(io.Discard, r.Body)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
			return
		}

		patch := internalorders.StaffPatch{
			Paid:          req.Paid,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
		}
		if req.Status != nil {
			status := enums.OrderStatus(*req.Status)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status"))
				return
			}
			patch.Status = &status
		}
		if req.PaymentStatus != nil {
			status := enums.PaymentStatus(*req.PaymentStatus)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status"))
				return
			}
			patch.PaymentStatus = &status
		}

		order, err := svc.UpdateByStaff(r.Context(), orderID, patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// DeleteOrder removes an order entirely. Admin-only via the route policy.
func DeleteOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
