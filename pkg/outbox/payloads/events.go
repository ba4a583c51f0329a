package payloads

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/silkmall/silkmall-backend/pkg/enums"
)

// OrderCreatedEvent signals a checkout that reserved stock and froze prices.
type OrderCreatedEvent struct {
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	ConsumerID  int64           `json:"consumer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
}

// OrderPaidEvent is emitted when the consumer wallet settles an order.
type OrderPaidEvent struct {
	OrderID          int64           `json:"order_id"`
	OrderNumber      string          `json:"order_number"`
	ConsumerID       int64           `json:"consumer_id"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	PaymentMethod    string          `json:"payment_method"`
	PaidAt           time.Time       `json:"paid_at"`
}

// OrderCancelledEvent reports a pre-payment cancellation and the stock release.
type OrderCancelledEvent struct {
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	ConsumerID  int64     `json:"consumer_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// OrderShippedEvent fires when shipment starts for an order.
type OrderShippedEvent struct {
	OrderID     int64      `json:"order_id"`
	OrderNumber string     `json:"order_number"`
	SupplierID  *int64     `json:"supplier_id,omitempty"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
}

// OrderInTransitEvent marks the logistics handoff.
type OrderInTransitEvent struct {
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
}

// OrderDeliveredEvent fires on delivery or consumer receipt confirmation.
type OrderDeliveredEvent struct {
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	ConsumerID  int64     `json:"consumer_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// OrderRevokedEvent reports an admin reversal of a paid order.
type OrderRevokedEvent struct {
	OrderID        int64           `json:"order_id"`
	OrderNumber    string          `json:"order_number"`
	ConsumerID     int64           `json:"consumer_id"`
	RefundedAmount decimal.Decimal `json:"refunded_amount"`
}

// PayoutApprovedEvent carries the escrow release breakdown per supplier.
type PayoutApprovedEvent struct {
	OrderID          int64             `json:"order_id"`
	OrderNumber      string            `json:"order_number"`
	CommissionAmount decimal.Decimal   `json:"commission_amount"`
	SupplierAmounts  []SupplierPayout  `json:"supplier_amounts"`
	ApprovedBy       int64             `json:"approved_by"`
	PayoutStatus     enums.PayoutStatus `json:"payout_status"`
}

// SupplierPayout is one supplier's share of a payout release.
type SupplierPayout struct {
	SupplierID int64           `json:"supplier_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// ReturnRequestedEvent signals a consumer opened a return for one order item.
type ReturnRequestedEvent struct {
	ReturnRequestID int64           `json:"return_request_id"`
	OrderItemID     int64           `json:"order_item_id"`
	OrderID         int64           `json:"order_id"`
	ConsumerID      int64           `json:"consumer_id"`
	SupplierID      int64           `json:"supplier_id"`
	RefundAmount    decimal.Decimal `json:"refund_amount"`
}

// ReturnProcessedEvent reports a supplier or admin decision on a return.
type ReturnProcessedEvent struct {
	ReturnRequestID int64              `json:"return_request_id"`
	OrderItemID     int64              `json:"order_item_id"`
	Status          enums.ReturnStatus `json:"status"`
	Resolution      string             `json:"resolution,omitempty"`
	ProcessedBy     int64              `json:"processed_by"`
}

// ReturnCompletedEvent carries the refund split applied when a return settles.
type ReturnCompletedEvent struct {
	ReturnRequestID  int64           `json:"return_request_id"`
	OrderItemID      int64           `json:"order_item_id"`
	ConsumerID       int64           `json:"consumer_id"`
	SupplierID       int64           `json:"supplier_id"`
	RefundAmount     decimal.Decimal `json:"refund_amount"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	SupplierAmount   decimal.Decimal `json:"supplier_amount"`
}

// ReviewCreatedEvent is emitted once a review passes the delivery gate.
type ReviewCreatedEvent struct {
	ReviewID    int64             `json:"review_id"`
	ProductID   int64             `json:"product_id"`
	OrderItemID int64             `json:"order_item_id"`
	AuthorID    int64             `json:"author_id"`
	AuthorRole  enums.AccountRole `json:"author_role"`
	Rating      int               `json:"rating"`
}

// WalletRedeemedEvent records a successful top-up code redemption.
type WalletRedeemedEvent struct {
	AccountID int64           `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	CodeHash  string          `json:"code_hash"`
}
