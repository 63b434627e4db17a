package customers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/avelarde/comanda-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func setupCustomersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`
CREATE TABLE IF NOT EXISTS customers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  phone TEXT UNIQUE,
  due_amount TEXT NOT NULL DEFAULT '0',
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	require.NoError(t, db.Exec(`
CREATE TABLE IF NOT EXISTS due_payments (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  amount TEXT NOT NULL,
  note TEXT,
  recorded_by TEXT,
  created_at DATETIME
);`).Error)
	return db
}

func newCustomersService(t *testing.T) (Service, Repository, *gorm.DB) {
	t.Helper()
	db := setupCustomersTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, gormTxRunner{db: db})
	require.NoError(t, err)
	return svc, repo, db
}

func TestCreateDuplicatePhone(t *testing.T) {
	svc, _, db := newCustomersService(t)

	insertCustomer(t, db, "+15550001111")

	_, err := svc.Create(context.Background(), CustomerInput{Name: "Other", Phone: "+15550001111"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestRecordDuePaymentAdjustsBalanceAtomically(t *testing.T) {
	svc, repo, db := newCustomersService(t)

	id := insertCustomer(t, db, "+15550002222")

	_, err := svc.RecordDuePayment(context.Background(), DuePaymentInput{
		CustomerID: id,
		Amount:     decimal.RequireFromString("15.00"),
		Note:       "dinner due",
	})
	require.NoError(t, err)

	_, err = svc.RecordDuePayment(context.Background(), DuePaymentInput{
		CustomerID: id,
		Amount:     decimal.RequireFromString("-5.00"),
		Note:       "partial settle",
	})
	require.NoError(t, err)

	customer, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "10", customer.DueAmount.String())

	payments, err := svc.ListDuePayments(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestRecordDuePaymentZeroAmount(t *testing.T) {
	svc, _, db := newCustomersService(t)
	id := insertCustomer(t, db, "")

	_, err := svc.RecordDuePayment(context.Background(), DuePaymentInput{CustomerID: id, Amount: decimal.Zero})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestRecordDuePaymentUnknownCustomer(t *testing.T) {
	svc, _, _ := newCustomersService(t)

	_, err := svc.RecordDuePayment(context.Background(), DuePaymentInput{
		CustomerID: uuid.New(),
		Amount:     decimal.RequireFromString("5.00"),
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

// insertCustomer inserts directly with a known id, bypassing the uuid
// column default Postgres would normally provide.
func insertCustomer(t *testing.T, db *gorm.DB, phone string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	var phonePtr *string
	if phone != "" {
		phonePtr = &phone
	}
	err := db.Exec(
		`INSERT INTO customers (id, name, phone, due_amount) VALUES (?, ?, ?, '0')`,
		id.String(), "Dana", phonePtr,
	).Error
	require.NoError(t, err)
	return id
}
