package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avelarde/comanda-backend/pkg/enums"
)

// DiningTable is a physical table; numbers are unique per outlet.
type DiningTable struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Number    int               `gorm:"column:number;uniqueIndex;not null" json:"number"`
	Seats     int               `gorm:"column:seats;not null" json:"seats"`
	Status    enums.TableStatus `gorm:"column:status;type:text;not null;default:'available'" json:"status"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableOrder is a dine-in order bound to a table, kept separate from the
// delivery/pickup Order flow. Items snapshot the menu just like order
// line items do.
type TableOrder struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TableID     uuid.UUID        `gorm:"column:table_id;type:uuid;not null;index" json:"table_id"`
	Items       []TableOrderItem `gorm:"foreignKey:TableOrderID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount decimal.Decimal  `gorm:"column:total_amount;type:numeric(10,2);not null" json:"total_amount"`
	Open        bool             `gorm:"column:open;not null;default:true" json:"open"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

type TableOrderItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TableOrderID uuid.UUID       `gorm:"column:table_order_id;type:uuid;not null;index" json:"table_order_id"`
	MenuItemID   *uuid.UUID      `gorm:"column:menu_item_id;type:uuid" json:"menu_item_id,omitempty"`
	Name         string          `gorm:"column:name;not null" json:"name"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null" json:"unit_price"`
	Quantity     int             `gorm:"column:quantity;not null" json:"quantity"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
