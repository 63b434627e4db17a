package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avelarde/comanda-backend/pkg/db"
	"github.com/avelarde/comanda-backend/pkg/db/models"
	pkgerrors "github.com/avelarde/comanda-backend/pkg/errors"
)

// CustomerInput carries customer fields for create/update.
type CustomerInput struct {
	Name  string
	Phone string
}

// DuePaymentInput records a settlement against a customer's balance.
// A negative amount reduces the due, a positive one increases it.
type DuePaymentInput struct {
	CustomerID uuid.UUID
	Amount     decimal.Decimal
	Note       string
	RecordedBy *uuid.UUID
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages customer records and their due balances.
type Service interface {
	List(ctx context.Context) ([]models.Customer, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	Create(ctx context.Context, input CustomerInput) (*models.Customer, error)
	Update(ctx context.Context, id uuid.UUID, input CustomerInput) (*models.Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error

	RecordDuePayment(ctx context.Context, input DuePaymentInput) (*models.DuePayment, error)
	ListDuePayments(ctx context.Context, customerID uuid.UUID) ([]models.DuePayment, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context) ([]models.Customer, error) {
	customers, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	return customers, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return s.load(ctx, id)
}

func (s *service) Create(ctx context.Context, input CustomerInput) (*models.Customer, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}

	customer := &models.Customer{Name: input.Name, Phone: normalizePhone(input.Phone)}
	if err := s.repo.Create(ctx, customer); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "phone number already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	return customer, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input CustomerInput) (*models.Customer, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}

	customer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	customer.Name = input.Name
	customer.Phone = normalizePhone(input.Phone)
	if err := s.repo.Update(ctx, customer); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "phone number already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}
	return customer, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete customer")
	}
	return nil
}

// RecordDuePayment writes the payment row and the balance adjustment in one
// transaction; the balance never drifts from its payment history.
func (s *service) RecordDuePayment(ctx context.Context, input DuePaymentInput) (*models.DuePayment, error) {
	if input.Amount.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be zero")
	}
	if _, err := s.load(ctx, input.CustomerID); err != nil {
		return nil, err
	}

	payment := &models.DuePayment{
		CustomerID: input.CustomerID,
		Amount:     input.Amount,
		Note:       input.Note,
		RecordedBy: input.RecordedBy,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateDuePayment(ctx, payment); err != nil {
			return err
		}
		return repo.AdjustDueAmount(ctx, input.CustomerID, input.Amount)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record due payment")
	}
	return payment, nil
}

func (s *service) ListDuePayments(ctx context.Context, customerID uuid.UUID) ([]models.DuePayment, error) {
	if _, err := s.load(ctx, customerID); err != nil {
		return nil, err
	}
	payments, err := s.repo.ListDuePayments(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list due payments")
	}
	return payments, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func normalizePhone(phone string) *string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil
	}
	return &phone
}
