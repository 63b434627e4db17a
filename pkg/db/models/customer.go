package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer aggregates billing history by phone number when one is given.
// DueAmount is only ever adjusted inside the same transaction that records
// the DuePayment which caused the adjustment.
type Customer struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string          `gorm:"column:name;not null" json:"name"`
	Phone     *string         `gorm:"column:phone;uniqueIndex" json:"phone,omitempty"`
	DueAmount decimal.Decimal `gorm:"column:due_amount;type:numeric(10,2);not null;default:0" json:"due_amount"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// DuePayment records a settlement (or increase) of a customer's outstanding due.
type DuePayment struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerID uuid.UUID       `gorm:"column:customer_id;type:uuid;not null;index" json:"customer_id"`
	Amount     decimal.Decimal `gorm:"column:amount;type:numeric(10,2);not null" json:"amount"`
	Note       string          `gorm:"column:note" json:"note,omitempty"`
	RecordedBy *uuid.UUID      `gorm:"column:recorded_by;type:uuid" json:"recorded_by,omitempty"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
