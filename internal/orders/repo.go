package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelarde/comanda-backend/pkg/db/models"
	"github.com/avelarde/comanda-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByIntentID(ctx context.Context, intentID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("payment_intent_id = ?", intentID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Preload("Items")
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *params.PaymentStatus)
	}
	if params.Cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			params.Cursor.CreatedAt, params.Cursor.CreatedAt, params.Cursor.ID,
		)
	}
	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) SetIntentID(ctx context.Context, id uuid.UUID, intentID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("payment_intent_id", intentID).Error
}

// MarkPaid is the reconciliation write: a single conditional update guarded
// on payment_status so redelivered success events are no-ops. A pending order
// moves to confirmed; later statuses are left alone.
func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status <> ?", id, enums.PaymentStatusPaid).
		Updates(map[string]any{
			"payment_status": enums.PaymentStatusPaid,
			"paid":           true,
			"status": gorm.Expr(
				"CASE WHEN status = ? THEN ? ELSE status END",
				enums.OrderStatusPending, enums.OrderStatusConfirmed,
			),
		})
	return res.RowsAffected, res.Error
}

// MarkFailed converges an order to failed/cancelled unless a success already
// won the race.
func (r *repository) MarkFailed(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status <> ?", id, enums.PaymentStatusPaid).
		Updates(map[string]any{
			"payment_status": enums.PaymentStatusFailed,
			"paid":           false,
			"status":         enums.OrderStatusCancelled,
		})
	return res.RowsAffected, res.Error
}

// CancelIfUnpaid closes the customer-cancel vs success-webhook race: the
// cancel only lands while the order is still unpaid and undelivered, and
// writes the full cancelled payment state in the same conditional update.
func (r *repository) CancelIfUnpaid(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status <> ? AND status <> ?",
			id, enums.PaymentStatusPaid, enums.OrderStatusDelivered).
		Updates(map[string]any{
			"status":         enums.OrderStatusCancelled,
			"payment_status": enums.PaymentStatusFailed,
			"paid":           false,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", enums.OrderStatusDelivered).Error
}

func (r *repository) Update(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"customer_name":  order.CustomerName,
			"customer_phone": order.CustomerPhone,
			"status":         order.Status,
			"payment_status": order.PaymentStatus,
			"paid":           order.Paid,
		}).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Order{}).Error
}
