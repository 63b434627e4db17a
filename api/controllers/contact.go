package controllers

import (
	"net/http"

	"github.com/avelarde/comanda-backend/api/responses"
	"github.com/avelarde/comanda-backend/api/validators"
	"github.com/avelarde/comanda-backend/internal/notifications"
	"github.com/avelarde/comanda-backend/pkg/logger"
)

type contactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone"`
	Message string `json:"message" validate:"required,min=10"`
}

// ContactForm forwards a public message to the outlet inbox. Unlike the
// lifecycle emails this one surfaces delivery failures to the caller.
func ContactForm(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req contactRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		err := svc.ContactMessage(r.Context(), notifications.ContactInput{
			Name:    req.Name,
			Email:   req.Email,
			Phone:   req.Phone,
			Message: req.Message,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "sent"})
	}
}
