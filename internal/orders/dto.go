package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/avelarde/comanda-backend/pkg/db/models"
	"github.com/avelarde/comanda-backend/pkg/enums"
	"github.com/avelarde/comanda-backend/pkg/pagination"
)

// CreateItemInput references a catalog item by id; price and name are
// resolved server-side.
type CreateItemInput struct {
	MenuItemID uuid.UUID
	Quantity   int
}

// CreateInput carries everything needed to place an order.
type CreateInput struct {
	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	OrderType   enums.OrderType
	AddressLine string
	City        string
	PostalCode  string
	PickupTime  *time.Time

	PaymentMethod enums.PaymentMethod
	Items         []CreateItemInput
}

// CreateResult is the service-level outcome of placing an order. The client
// secret is set only for online payments.
type CreateResult struct {
	Order        *models.Order
	ClientSecret string
}

// StaffPatch is the whitelist of fields staff may change on an order.
// Server-owned fields (delivery code, amounts, intent id) are absent by
// construction.
type StaffPatch struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	Paid          *bool
	CustomerName  *string
	CustomerPhone *string
}

// ListParams filters and paginates the staff order list.
type ListParams struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	Limit         int
	Cursor        *pagination.Cursor
}

// ListResult carries one page of orders plus the cursor for the next.
type ListResult struct {
	Orders     []models.Order
	NextCursor string
}
