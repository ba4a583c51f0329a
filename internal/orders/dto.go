package orders

import (
	"github.com/shopspring/decimal"

	"github.com/silkmall/silkmall-backend/pkg/db/models"
	"github.com/silkmall/silkmall-backend/pkg/enums"
)

// ContactInfo is the delivery contact block carried on every order.
type ContactInfo struct {
	Name    string
	Phone   string
	Address string
}

// CreateOrderItemInput is one requested line in a checkout.
type CreateOrderItemInput struct {
	ProductID int64
	Qty       int
}

// CreateOrderInput captures a consumer checkout request.
type CreateOrderInput struct {
	ConsumerID int64
	Contact    ContactInfo
	Items      []CreateOrderItemInput
}

// UpdateContactInput carries a contact-info edit on an existing order.
type UpdateContactInput struct {
	OrderID    int64
	ConsumerID int64
	Contact    ContactInfo
}

// ListFilters describe the inputs supported by the order lists.
type ListFilters struct {
	Status           *enums.OrderStatus
	OrderNumber      string
	ConsumerLookupID string
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// PayoutShare is one supplier's slice of an approved payout.
type PayoutShare struct {
	SupplierID int64
	Amount     decimal.Decimal
}
