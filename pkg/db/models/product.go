package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/silkmall/silkmall-backend/pkg/enums"
)

// Product represents a supplier listing. Stock and Sales only move through
// the conditional updates in internal/inventory.
type Product struct {
	ID         int64               `gorm:"column:id;primaryKey;autoIncrement"`
	SupplierID int64               `gorm:"column:supplier_id;not null;index"`
	Name       string              `gorm:"column:name;not null"`
	Price      decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Stock      int                 `gorm:"column:stock;not null;default:0"`
	Sales      int                 `gorm:"column:sales;not null;default:0"`
	Status     enums.ProductStatus `gorm:"column:status;type:product_status;not null;default:'on_sale'"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
