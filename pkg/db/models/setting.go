package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Setting is the singleton outlet record. It is re-read per request instead
// of being cached in process, so concurrent admin edits take effect
// immediately.
type Setting struct {
	ID             int             `gorm:"column:id;primaryKey" json:"id"`
	OutletName     string          `gorm:"column:outlet_name;not null" json:"outlet_name"`
	ContactEmail   string          `gorm:"column:contact_email" json:"contact_email,omitempty"`
	ContactPhone   string          `gorm:"column:contact_phone" json:"contact_phone,omitempty"`
	Address        string          `gorm:"column:address" json:"address,omitempty"`
	DeliveryCharge decimal.Decimal `gorm:"column:delivery_charge;type:numeric(10,2);not null;default:0" json:"delivery_charge"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// SettingRowID pins the singleton row.
const SettingRowID = 1
