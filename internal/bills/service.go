package bills

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avelarde/comanda-backend/internal/customers"
	"github.com/avelarde/comanda-backend/pkg/db/models"
	pkgerrors "github.com/avelarde/comanda-backend/pkg/errors"
)

// CreateInput settles a sitting. PaidAmount below TotalAmount leaves a
// remainder that must land on a linked customer's due balance.
type CreateInput struct {
	TableID     *uuid.UUID
	CustomerID  *uuid.UUID
	TotalAmount decimal.Decimal
	PaidAmount  decimal.Decimal
	IssuedBy    *uuid.UUID
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Bill, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Bill, error)
	List(ctx context.Context, customerID *uuid.UUID) ([]models.Bill, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	customers customers.Repository
}

// NewService wires the bills repository with the customer ledger. The bill
// row and any due-balance adjustment commit in one transaction.
func NewService(repo Repository, tx txRunner, customerRepo customers.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bills repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if customerRepo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	return &service{repo: repo, tx: tx, customers: customerRepo}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Bill, error) {
	if !input.TotalAmount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total amount must be positive")
	}
	if input.PaidAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paid amount must not be negative")
	}
	if input.PaidAmount.GreaterThan(input.TotalAmount) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paid amount exceeds total")
	}

	due := input.TotalAmount.Sub(input.PaidAmount)
	if due.IsPositive() && input.CustomerID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a customer is required to carry an outstanding balance")
	}
	if input.CustomerID != nil {
		if _, err := s.customers.FindByID(ctx, *input.CustomerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
		}
	}

	bill := &models.Bill{
		TableID:     input.TableID,
		CustomerID:  input.CustomerID,
		TotalAmount: input.TotalAmount,
		PaidAmount:  input.PaidAmount,
		DueAmount:   due,
		IssuedBy:    input.IssuedBy,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, bill); err != nil {
			return err
		}
		if !due.IsPositive() {
			return nil
		}
		ledger := s.customers.WithTx(tx)
		payment := &models.DuePayment{
			CustomerID: *input.CustomerID,
			Amount:     due,
			Note:       fmt.Sprintf("bill %s remainder", bill.ID),
			RecordedBy: input.IssuedBy,
		}
		if err := ledger.CreateDuePayment(ctx, payment); err != nil {
			return err
		}
		return ledger.AdjustDueAmount(ctx, *input.CustomerID, due)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create bill")
	}
	return bill, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Bill, error) {
	bill, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bill not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bill")
	}
	return bill, nil
}

func (s *service) List(ctx context.Context, customerID *uuid.UUID) ([]models.Bill, error) {
	bills, err := s.repo.List(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bills")
	}
	return bills, nil
}
