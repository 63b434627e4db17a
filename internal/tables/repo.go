package tables

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelarde/comanda-backend/pkg/db/models"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	ListTables(ctx context.Context) ([]models.DiningTable, error)
	FindTableByID(ctx context.Context, id uuid.UUID) (*models.DiningTable, error)
	CreateTable(ctx context.Context, table *models.DiningTable) error
	UpdateTable(ctx context.Context, table *models.DiningTable) error
	DeleteTable(ctx context.Context, id uuid.UUID) error

	CreateTableOrder(ctx context.Context, order *models.TableOrder) error
	FindTableOrderByID(ctx context.Context, id uuid.UUID) (*models.TableOrder, error)
	FindOpenOrderForTable(ctx context.Context, tableID uuid.UUID) (*models.TableOrder, error)
	ListTableOrders(ctx context.Context, tableID *uuid.UUID, openOnly bool) ([]models.TableOrder, error)
	UpdateTableOrder(ctx context.Context, order *models.TableOrder) error
	CreateTableOrderItems(ctx context.Context, items []models.TableOrderItem) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListTables(ctx context.Context) ([]models.DiningTable, error) {
	var tables []models.DiningTable
	if err := r.db.WithContext(ctx).Order("number ASC").Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

func (r *repository) FindTableByID(ctx context.Context, id uuid.UUID) (*models.DiningTable, error) {
	var table models.DiningTable
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&table).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *repository) CreateTable(ctx context.Context, table *models.DiningTable) error {
	return r.db.WithContext(ctx).Create(table).Error
}

func (r *repository) UpdateTable(ctx context.Context, table *models.DiningTable) error {
	return r.db.WithContext(ctx).Save(table).Error
}

func (r *repository) DeleteTable(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.DiningTable{}).Error
}

func (r *repository) CreateTableOrder(ctx context.Context, order *models.TableOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindTableOrderByID(ctx context.Context, id uuid.UUID) (*models.TableOrder, error) {
	var order models.TableOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOpenOrderForTable(ctx context.Context, tableID uuid.UUID) (*models.TableOrder, error) {
	var order models.TableOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("table_id = ? AND open = ?", tableID, true).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListTableOrders(ctx context.Context, tableID *uuid.UUID, openOnly bool) ([]models.TableOrder, error) {
	query := r.db.WithContext(ctx).Preload("Items")
	if tableID != nil {
		query = query.Where("table_id = ?", *tableID)
	}
	if openOnly {
		query = query.Where("open = ?", true)
	}
	var orders []models.TableOrder
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) UpdateTableOrder(ctx context.Context, order *models.TableOrder) error {
	return r.db.WithContext(ctx).
		Model(&models.TableOrder{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"total_amount": order.TotalAmount,
			"open":         order.Open,
		}).Error
}

func (r *repository) CreateTableOrderItems(ctx context.Context, items []models.TableOrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}
