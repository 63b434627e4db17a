package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avelarde/comanda-backend/pkg/enums"
)

// Order is the central entity of the ordering flow. Customer and line-item
// data are snapshots taken at creation time so later edits to customers or
// the menu never alter historical orders.
type Order struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	CustomerName  string `gorm:"column:customer_name;not null" json:"customer_name"`
	CustomerEmail string `gorm:"column:customer_email;not null" json:"customer_email"`
	CustomerPhone string `gorm:"column:customer_phone;not null" json:"customer_phone"`

	OrderType enums.OrderType `gorm:"column:order_type;type:text;not null" json:"order_type"`

	// Home-delivery address snapshot, empty for pickup orders.
	AddressLine string `gorm:"column:address_line" json:"address_line,omitempty"`
	City        string `gorm:"column:city" json:"city,omitempty"`
	PostalCode  string `gorm:"column:postal_code" json:"postal_code,omitempty"`

	PickupTime *time.Time `gorm:"column:pickup_time" json:"pickup_time,omitempty"`

	// DeliveryCode is a customer-facing secret minted at creation and never
	// writable afterwards.
	DeliveryCode string `gorm:"column:delivery_code;type:char(6);not null" json:"delivery_code"`

	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:numeric(10,2);not null" json:"subtotal"`
	DeliveryCharge decimal.Decimal `gorm:"column:delivery_charge;type:numeric(10,2);not null;default:0" json:"delivery_charge"`
	TotalAmount    decimal.Decimal `gorm:"column:total_amount;type:numeric(10,2);not null" json:"total_amount"`

	Status          enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:text;not null" json:"payment_method"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'" json:"payment_status"`
	Paid            bool                `gorm:"column:paid;not null;default:false" json:"paid"`
	PaymentIntentID *string             `gorm:"column:payment_intent_id" json:"payment_intent_id,omitempty"`

	Items []OrderLineItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
