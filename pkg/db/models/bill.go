package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bill is a cashier-generated settlement for a dine-in sitting. When part of
// the total is left outstanding, the remainder lands on the linked customer's
// due balance in the same transaction.
type Bill struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TableID     *uuid.UUID      `gorm:"column:table_id;type:uuid" json:"table_id,omitempty"`
	CustomerID  *uuid.UUID      `gorm:"column:customer_id;type:uuid;index" json:"customer_id,omitempty"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:numeric(10,2);not null" json:"total_amount"`
	PaidAmount  decimal.Decimal `gorm:"column:paid_amount;type:numeric(10,2);not null" json:"paid_amount"`
	DueAmount   decimal.Decimal `gorm:"column:due_amount;type:numeric(10,2);not null;default:0" json:"due_amount"`
	IssuedBy    *uuid.UUID      `gorm:"column:issued_by;type:uuid" json:"issued_by,omitempty"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
