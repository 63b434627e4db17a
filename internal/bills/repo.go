package bills

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelarde/comanda-backend/pkg/db/models"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, bill *models.Bill) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Bill, error)
	List(ctx context.Context, customerID *uuid.UUID) ([]models.Bill, error)
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

func (r *repository) Create(ctx context.Context, bill *models.Bill) error {
	return r.db.WithContext(ctx).Create(bill).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Bill, error) {
	var bill models.Bill
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&bill).Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *repository) List(ctx context.Context, customerID *uuid.UUID) ([]models.Bill, error) {
	query := r.db.WithContext(ctx)
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}
	var bills []models.Bill
	if err := query.Order("created_at DESC").Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}
