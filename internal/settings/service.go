package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avelarde/comanda-backend/pkg/db/models"
	pkgerrors "github.com/avelarde/comanda-backend/pkg/errors"
)

// UpdateInput is the admin-editable slice of the outlet settings.
type UpdateInput struct {
	OutletName     string
	ContactEmail   string
	ContactPhone   string
	Address        string
	DeliveryCharge decimal.Decimal
}

// Service exposes the outlet settings. Get is called per request by flows
// that price against the delivery charge; nothing is cached in process.
type Service interface {
	Get(ctx context.Context) (*models.Setting, error)
	Update(ctx context.Context, input UpdateInput) (*models.Setting, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context) (*models.Setting, error) {
	setting, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "settings not initialized")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}
	return setting, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Setting, error) {
	if input.OutletName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outlet name required")
	}
	if input.DeliveryCharge.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery charge must not be negative")
	}

	setting := &models.Setting{
		ID:             models.SettingRowID,
		OutletName:     input.OutletName,
		ContactEmail:   input.ContactEmail,
		ContactPhone:   input.ContactPhone,
		Address:        input.Address,
		DeliveryCharge: input.DeliveryCharge,
	}
	if err := s.repo.Save(ctx, setting); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save settings")
	}
	return setting, nil
}
