package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/silkmall/silkmall-backend/pkg/enums"
)

// WalletEntry records one balance mutation. Entries are append-only; the sum
// of an account's entries plus its initial balance equals wallet_balance.
type WalletEntry struct {
	ID        int64                      `gorm:"column:id;primaryKey;autoIncrement"`
	AccountID int64                      `gorm:"column:account_id;not null;index"`
	OrderID   *int64                     `gorm:"column:order_id;index"`
	Direction enums.WalletEntryDirection `gorm:"column:direction;type:wallet_entry_direction;not null"`
	Kind      enums.WalletEntryKind      `gorm:"column:kind;type:wallet_entry_kind;not null"`
	Amount    decimal.Decimal            `gorm:"column:amount;type:numeric(14,2);not null"`
	CreatedAt time.Time                  `gorm:"column:created_at;autoCreateTime"`
}
