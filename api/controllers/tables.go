package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/avelarde/comanda-backend/api/responses"
	"github.com/avelarde/comanda-backend/api/validators"
	"github.com/avelarde/comanda-backend/internal/tables"
	"github.com/avelarde/comanda-backend/pkg/enums"
	"github.com/avelarde/comanda-backend/pkg/logger"
)

type tableRequest struct {
	Number int    `json:"number" validate:"required,gt=0"`
	Seats  int    `json:"seats" validate:"required,gt=0"`
	Status string `json:"status" validate:"omitempty,oneof=available occupied reserved"`
}

type tableOrderItemsRequest struct {
	Items []tableOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type tableOrderItemRequest struct {
	MenuItemID string `json:"menu_item_id" validate:"required,uuid"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
}

func ListTables(svc tables.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListTables(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func CreateTable(svc tables.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tableRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		table, err := svc.CreateTable(r.Context(), tables.TableInput{
			Number: req.Number,
			Seats:  req.Seats,
			Status: enums.TableStatus(req.Status),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, table)
	}
}

func UpdateTable(svc tables.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "tableId"), "tableId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req tableRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		table, err := svc.UpdateTable(r.Context(), id, tables.TableInput{
			Number: req.Number,
			Seats:  req.Seats,
			Status: enums.TableStatus(req.Status),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, table)
	}
}

func DeleteTable(svc tables.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "tableId"), "tableId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteTable(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// OpenTableOrder starts a dine-in order for the table.
func OpenTableOrder(svc tables.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tableID, err := validators.ParsePathUUID(chi.URLParam(r, "tableId"), "tableId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := decodeTableOrderItems(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.OpenOrder(r.Context(), tableID, items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// AddTableOrderItems appends a round to an open dine-in order.
func AddTableOrderItems(svc tables.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := decodeTableOrderItems(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.AddItems(r.Context(), orderID, items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func CloseTableOrder(svc tables.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.CloseOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func ListTableOrders(svc tables.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var tableID *uuid.UUID
		if raw := strings.TrimSpace(r.URL.Query().Get("table_id")); raw != "" {
			id, err := validators.ParsePathUUID(raw, "table_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			tableID = &id
		}
		openOnly := strings.EqualFold(r.URL.Query().Get("open"), "true")

		orders, err := svc.ListOrders(r.Context(), tableID, openOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

func decodeTableOrderItems(r *http.Request) ([]tables.OrderItemInput, error) {
	var req tableOrderItemsRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		return nil, err
	}
	items := make([]tables.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		id, err := validators.ParsePathUUID(item.MenuItemID, "menu_item_id")
		if err != nil {
			return nil, err
		}
		items = append(items, tables.OrderItemInput{MenuItemID: id, Quantity: item.Quantity})
	}
	return items, nil
}
