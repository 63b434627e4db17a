package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avelarde/comanda-backend/api/middleware"
	"github.com/avelarde/comanda-backend/api/responses"
	"github.com/avelarde/comanda-backend/api/validators"
	"github.com/avelarde/comanda-backend/internal/bills"
	pkgerrors "github.com/avelarde/comanda-backend/pkg/errors"
	"github.com/avelarde/comanda-backend/pkg/logger"
)

type createBillRequest struct {
	TableID     *string `json:"table_id"`
	CustomerID  *string `json:"customer_id"`
	TotalAmount string  `json:"total_amount" validate:"required"`
	PaidAmount  string  `json:"paid_amount" validate:"required"`
}

// CreateBill settles a sitting; a paid amount below the total books the
// remainder onto the linked customer's due balance.
func CreateBill(svc bills.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createBillRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		total, err := decimal.NewFromString(req.TotalAmount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "total_amount must be a decimal string"))
			return
		}
		paid, err := decimal.NewFromString(req.PaidAmount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "paid_amount must be a decimal string"))
			return
		}

		input := bills.CreateInput{TotalAmount: total, PaidAmount: paid}
		if req.TableID != nil {
			id, err := validators.ParsePathUUID(*req.TableID, "table_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.TableID = &id
		}
		if req.CustomerID != nil {
			id, err := validators.ParsePathUUID(*req.CustomerID, "customer_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.CustomerID = &id
		}
		if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
			if staffID, err := uuid.Parse(raw); err == nil {
				input.IssuedBy = &staffID
			}
		}

		bill, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, bill)
	}
}

func GetBill(svc bills.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "billId"), "billId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bill, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bill)
	}
}

func ListBills(svc bills.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var customerID *uuid.UUID
		if raw := strings.TrimSpace(r.URL.Query().Get("customer_id")); raw != "" {
			id, err := validators.ParsePathUUID(raw, "customer_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			customerID = &id
		}
		list, err := svc.List(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
