package tables

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avelarde/comanda-backend/pkg/db"
	"github.com/avelarde/comanda-backend/pkg/db/models"
	"github.com/avelarde/comanda-backend/pkg/enums"
	pkgerrors "github.com/avelarde/comanda-backend/pkg/errors"
)

// TableInput carries dining table fields for create/update.
type TableInput struct {
	Number int
	Seats  int
	Status enums.TableStatus
}

// OrderItemInput references a menu item for a dine-in order.
type OrderItemInput struct {
	MenuItemID uuid.UUID
	Quantity   int
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type menuReader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.MenuItem, error)
}

// Service manages dining tables and the dine-in orders attached to them.
type Service interface {
	ListTables(ctx context.Context) ([]models.DiningTable, error)
	CreateTable(ctx context.Context, input TableInput) (*models.DiningTable, error)
	UpdateTable(ctx context.Context, id uuid.UUID, input TableInput) (*models.DiningTable, error)
	DeleteTable(ctx context.Context, id uuid.UUID) error

	OpenOrder(ctx context.Context, tableID uuid.UUID, items []OrderItemInput) (*models.TableOrder, error)
	AddItems(ctx context.Context, orderID uuid.UUID, items []OrderItemInput) (*models.TableOrder, error)
	CloseOrder(ctx context.Context, orderID uuid.UUID) (*models.TableOrder, error)
	ListOrders(ctx context.Context, tableID *uuid.UUID, openOnly bool) ([]models.TableOrder, error)
}

type service struct {
	repo Repository
	tx   txRunner
	menu menuReader
}

func NewService(repo Repository, tx txRunner, menu menuReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tables repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if menu == nil {
		return nil, fmt.Errorf("menu reader required")
	}
	return &service{repo: repo, tx: tx, menu: menu}, nil
}

func (s *service) ListTables(ctx context.Context) ([]models.DiningTable, error) {
	tables, err := s.repo.ListTables(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tables")
	}
	return tables, nil
}

func (s *service) CreateTable(ctx context.Context, input TableInput) (*models.DiningTable, error) {
	if err := validateTableInput(input); err != nil {
		return nil, err
	}

	table := &models.DiningTable{
		Number: input.Number,
		Seats:  input.Seats,
		Status: input.Status,
	}
	if table.Status == "" {
		table.Status = enums.TableStatusAvailable
	}
	if err := s.repo.CreateTable(ctx, table); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "table number already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create table")
	}
	return table, nil
}

func (s *service) UpdateTable(ctx context.Context, id uuid.UUID, input TableInput) (*models.DiningTable, error) {
	if err := validateTableInput(input); err != nil {
		return nil, err
	}

	table, err := s.loadTable(ctx, id)
	if err != nil {
		return nil, err
	}
	table.Number = input.Number
	table.Seats = input.Seats
	if input.Status != "" {
		table.Status = input.Status
	}
	if err := s.repo.UpdateTable(ctx, table); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "table number already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update table")
	}
	return table, nil
}

func (s *service) DeleteTable(ctx context.Context, id uuid.UUID) error {
	if _, err := s.loadTable(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteTable(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete table")
	}
	return nil
}

// OpenOrder starts a dine-in order for a table. A table can only carry one
// open order at a time; new rounds go through AddItems.
func (s *service) OpenOrder(ctx context.Context, tableID uuid.UUID, items []OrderItemInput) (*models.TableOrder, error) {
	table, err := s.loadTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindOpenOrderForTable(ctx, tableID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "table already has an open order")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check open order")
	}

	snapshot, total, err := s.buildItems(ctx, items)
	if err != nil {
		return nil, err
	}

	order := &models.TableOrder{
		TableID:     table.ID,
		Items:       snapshot,
		TotalAmount: total,
		Open:        true,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateTableOrder(ctx, order); err != nil {
			return err
		}
		table.Status = enums.TableStatusOccupied
		return repo.UpdateTable(ctx, table)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open table order")
	}
	return order, nil
}

func (s *service) AddItems(ctx context.Context, orderID uuid.UUID, items []OrderItemInput) (*models.TableOrder, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Open {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is closed")
	}

	snapshot, total, err := s.buildItems(ctx, items)
	if err != nil {
		return nil, err
	}
	for i := range snapshot {
		snapshot[i].TableOrderID = order.ID
	}

	order.TotalAmount = order.TotalAmount.Add(total)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateTableOrderItems(ctx, snapshot); err != nil {
			return err
		}
		return repo.UpdateTableOrder(ctx, order)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add items to table order")
	}
	order.Items = append(order.Items, snapshot...)
	return order, nil
}

func (s *service) CloseOrder(ctx context.Context, orderID uuid.UUID) (*models.TableOrder, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Open {
		return order, nil
	}

	order.Open = false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateTableOrder(ctx, order); err != nil {
			return err
		}
		table, err := repo.FindTableByID(ctx, order.TableID)
		if err != nil {
			return err
		}
		table.Status = enums.TableStatusAvailable
		return repo.UpdateTable(ctx, table)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close table order")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, tableID *uuid.UUID, openOnly bool) ([]models.TableOrder, error) {
	orders, err := s.repo.ListTableOrders(ctx, tableID, openOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list table orders")
	}
	return orders, nil
}

func (s *service) buildItems(ctx context.Context, inputs []OrderItemInput) ([]models.TableOrderItem, decimal.Decimal, error) {
	if len(inputs) == 0 {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "items must not be empty")
	}

	ids := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		if in.Quantity <= 0 {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		ids = append(ids, in.MenuItemID)
	}

	menuItems, err := s.menu.FindByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve menu items")
	}
	byID := make(map[uuid.UUID]models.MenuItem, len(menuItems))
	for _, mi := range menuItems {
		byID[mi.ID] = mi
	}

	total := decimal.Zero
	items := make([]models.TableOrderItem, 0, len(inputs))
	for _, in := range inputs {
		mi, ok := byID[in.MenuItemID]
		if !ok {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found").
				WithDetails(map[string]any{"menu_item_id": in.MenuItemID})
		}
		menuItemID := mi.ID
		items = append(items, models.TableOrderItem{
			MenuItemID: &menuItemID,
			Name:       mi.Name,
			UnitPrice:  mi.Price,
			Quantity:   in.Quantity,
		})
		total = total.Add(mi.Price.Mul(decimal.NewFromInt(int64(in.Quantity))))
	}
	return items, total, nil
}

func (s *service) loadTable(ctx context.Context, id uuid.UUID) (*models.DiningTable, error) {
	table, err := s.repo.FindTableByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "table not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load table")
	}
	return table, nil
}

func (s *service) loadOrder(ctx context.Context, id uuid.UUID) (*models.TableOrder, error) {
	order, err := s.repo.FindTableOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "table order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load table order")
	}
	return order, nil
}

func validateTableInput(input TableInput) error {
	if input.Number <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "table number must be positive")
	}
	if input.Seats <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "seat count must be positive")
	}
	if input.Status != "" && !input.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid table status")
	}
	return nil
}
