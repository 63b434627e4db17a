package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/avelarde/comanda-backend/pkg/db/models"
	"github.com/avelarde/comanda-backend/pkg/enums"
	"github.com/avelarde/comanda-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ordersTable := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_name TEXT NOT NULL,
  customer_email TEXT NOT NULL,
  customer_phone TEXT NOT NULL,
  order_type TEXT NOT NULL,
  address_line TEXT,
  city TEXT,
  postal_code TEXT,
  pickup_time DATETIME,
  delivery_code TEXT NOT NULL,
  subtotal TEXT NOT NULL,
  delivery_charge TEXT NOT NULL DEFAULT '0',
  total_amount TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL,
  payment_status TEXT NOT NULL DEFAULT 'pending',
  paid INTEGER NOT NULL DEFAULT 0,
  payment_intent_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	lineItemsTable := `
CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  menu_item_id TEXT,
  name TEXT NOT NULL,
  unit_price TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  image_url TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(ordersTable).Error)
	require.NoError(t, db.Exec(lineItemsTable).Error)
	return db
}

func insertOrder(t *testing.T, db *gorm.DB, mutate func(*models.Order)) *models.Order {
	t.Helper()

	itemID := uuid.New()
	order := &models.Order{
		ID:            uuid.New(),
		CustomerName:  "Dana",
		CustomerEmail: "dana@example.com",
		CustomerPhone: "+15550001111",
		OrderType:     enums.OrderTypePickup,
		DeliveryCode:  "123456",
		Subtotal:      decimal.RequireFromString("20.25"),
		TotalAmount:   decimal.RequireFromString("20.25"),
		Status:        enums.OrderStatusPending,
		PaymentMethod: enums.PaymentMethodOnline,
		PaymentStatus: enums.PaymentStatusPending,
		Items: []models.OrderLineItem{
			{ID: uuid.New(), MenuItemID: &itemID, Name: "Burger", UnitPrice: decimal.RequireFromString("8.50"), Quantity: 2},
		},
	}
	if mutate != nil {
		mutate(order)
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepoMarkPaid(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := insertOrder(t, db, nil)

	rows, err := repo.MarkPaid(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, enums.OrderStatusConfirmed, stored.Status)
	assert.True(t, stored.Paid)

	// Redelivery: guard makes the second update a no-op.
	rows, err = repo.MarkPaid(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
}

func TestRepoMarkPaidKeepsLaterStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := insertOrder(t, db, func(o *models.Order) {
		o.Status = enums.OrderStatusDelivered
	})

	rows, err := repo.MarkPaid(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, stored.Status, "a late success event must not rewind a delivered order")
	assert.True(t, stored.Paid)
}

func TestRepoMarkFailedDoesNotClobberPaid(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := insertOrder(t, db, func(o *models.Order) {
		o.PaymentStatus = enums.PaymentStatusPaid
		o.Paid = true
		o.Status = enums.OrderStatusConfirmed
	})

	rows, err := repo.MarkFailed(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, stored.PaymentStatus)
}

func TestRepoCancelIfUnpaid(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	unpaid := insertOrder(t, db, nil)
	rows, err := repo.CancelIfUnpaid(ctx, unpaid.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	stored, err := repo.FindByID(ctx, unpaid.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, stored.Status)
	assert.Equal(t, enums.PaymentStatusFailed, stored.PaymentStatus)
	assert.False(t, stored.Paid)

	paid := insertOrder(t, db, func(o *models.Order) {
		o.PaymentStatus = enums.PaymentStatusPaid
		o.Paid = true
		o.Status = enums.OrderStatusConfirmed
	})
	rows, err = repo.CancelIfUnpaid(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows, "paid orders must survive a concurrent cancel")
}

func TestRepoFindByIntentID(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := insertOrder(t, db, nil)
	require.NoError(t, repo.SetIntentID(ctx, order.ID, "pi_abc"))

	found, err := repo.FindByIntentID(ctx, "pi_abc")
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	require.Len(t, found.Items, 1)

	_, err = repo.FindByIntentID(ctx, "pi_missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepoListCursorPagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		createdAt := base.Add(time.Duration(i) * time.Minute)
		insertOrder(t, db, func(o *models.Order) {
			o.CreatedAt = createdAt
			o.Items = nil
		})
	}

	first, err := repo.List(ctx, ListParams{Limit: 3})
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.True(t, first[0].CreatedAt.After(first[2].CreatedAt) || first[0].CreatedAt.Equal(first[2].CreatedAt))

	last := first[len(first)-1]
	second, err := repo.List(ctx, ListParams{
		Limit:  3,
		Cursor: &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID},
	})
	require.NoError(t, err)
	require.Len(t, second, 2)
	for _, o := range second {
		assert.True(t, o.CreatedAt.Before(last.CreatedAt))
	}
}

func TestRepoListStatusFilter(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	insertOrder(t, db, nil)
	insertOrder(t, db, func(o *models.Order) { o.Status = enums.OrderStatusCancelled })

	cancelled := enums.OrderStatusCancelled
	rows, err := repo.List(ctx, ListParams{Status: &cancelled})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.OrderStatusCancelled, rows[0].Status)
}
