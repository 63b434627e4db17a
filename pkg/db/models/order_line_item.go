package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLineItem snapshots a menu item at order time. MenuItemID is kept for
// reporting only; name, price and image are authoritative copies so menu
// edits or deletions never drift a persisted order.
type OrderLineItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID    uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	MenuItemID *uuid.UUID      `gorm:"column:menu_item_id;type:uuid" json:"menu_item_id,omitempty"`
	Name       string          `gorm:"column:name;not null" json:"name"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null" json:"unit_price"`
	Quantity   int             `gorm:"column:quantity;not null" json:"quantity"`
	ImageURL   string          `gorm:"column:image_url" json:"image_url,omitempty"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
