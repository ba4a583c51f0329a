package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/silkmall/silkmall-backend/pkg/enums"
)

// ReturnRequest tracks the refund workflow for a single order item. The
// refund breakdown is frozen at creation so commission-rate changes cannot
// alter an in-flight request.
type ReturnRequest struct {
	ID               int64              `gorm:"column:id;primaryKey;autoIncrement"`
	OrderItemID      int64              `gorm:"column:order_item_id;not null;index"`
	OrderID          int64              `gorm:"column:order_id;not null;index"`
	ConsumerID       int64              `gorm:"column:consumer_id;not null;index"`
	SupplierID       int64              `gorm:"column:supplier_id;not null;index"`
	Reason           string             `gorm:"column:reason;not null"`
	Status           enums.ReturnStatus `gorm:"column:status;type:return_status;not null;default:'pending'"`
	Resolution       string             `gorm:"column:resolution"`
	RefundAmount     decimal.Decimal    `gorm:"column:refund_amount;type:numeric(14,2);not null"`
	CommissionAmount decimal.Decimal    `gorm:"column:commission_amount;type:numeric(14,2);not null"`
	SupplierAmount   decimal.Decimal    `gorm:"column:supplier_amount;type:numeric(14,2);not null"`
	ProcessedBy      *int64             `gorm:"column:processed_by"`
	ProcessedAt      *time.Time         `gorm:"column:processed_at"`
	CompletedAt      *time.Time         `gorm:"column:completed_at"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
