package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/avelarde/comanda-backend/api/responses"
	"github.com/avelarde/comanda-backend/api/validators"
	"github.com/avelarde/comanda-backend/internal/settings"
	pkgerrors "github.com/avelarde/comanda-backend/pkg/errors"
	"github.com/avelarde/comanda-backend/pkg/logger"
)

type updateSettingsRequest struct {
	OutletName     string `json:"outlet_name" validate:"required"`
	ContactEmail   string `json:"contact_email" validate:"omitempty,email"`
	ContactPhone   string `json:"contact_phone"`
	Address        string `json:"address"`
	DeliveryCharge string `json:"delivery_charge" validate:"required"`
}

// GetSettings returns the outlet configuration. Public: the storefront needs
// the delivery charge and contact details.
func GetSettings(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setting, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, setting)
	}
}

// UpdateSettings replaces the outlet configuration. Admin-only via policy.
func UpdateSettings(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateSettingsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		charge, err := decimal.NewFromString(req.DeliveryCharge)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "delivery_charge must be a decimal string"))
			return
		}
		setting, err := svc.Update(r.Context(), settings.UpdateInput{
			OutletName:     req.OutletName,
			ContactEmail:   req.ContactEmail,
			ContactPhone:   req.ContactPhone,
			Address:        req.Address,
			DeliveryCharge: charge,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, setting)
	}
}
