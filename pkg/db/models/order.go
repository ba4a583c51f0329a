package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/silkmall/silkmall-backend/pkg/enums"
)

// Order is the consumer-facing aggregate. Items may span several suppliers;
// supplier payouts are settled per line item when the payout is approved.
type Order struct {
	ID               int64              `gorm:"column:id;primaryKey;autoIncrement"`
	OrderNumber      string             `gorm:"column:order_number;not null;uniqueIndex"`
	ConsumerLookupID string             `gorm:"column:consumer_lookup_id;index"`
	ConsumerID       int64              `gorm:"column:consumer_id;not null;index"`
	Status           enums.OrderStatus  `gorm:"column:status;type:order_status;not null;default:'pending_payment'"`
	PayoutStatus     enums.PayoutStatus `gorm:"column:payout_status;type:payout_status;not null;default:'none'"`
	TotalAmount      decimal.Decimal    `gorm:"column:total_amount;type:numeric(14,2);not null"`
	CommissionAmount decimal.Decimal    `gorm:"column:commission_amount;type:numeric(14,2);not null"`
	PaymentMethod    string             `gorm:"column:payment_method"`
	ContactName      string             `gorm:"column:contact_name;not null"`
	ContactPhone     string             `gorm:"column:contact_phone;not null"`
	ShippingAddress  string             `gorm:"column:shipping_address;not null"`
	Items            []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PaidAt           *time.Time         `gorm:"column:paid_at"`
	ShippedAt        *time.Time         `gorm:"column:shipped_at"`
	InTransitAt      *time.Time         `gorm:"column:in_transit_at"`
	DeliveredAt      *time.Time         `gorm:"column:delivered_at"`
	PayoutApprovedAt *time.Time         `gorm:"column:payout_approved_at"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
