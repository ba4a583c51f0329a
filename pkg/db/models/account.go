package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/silkmall/silkmall-backend/pkg/enums"
)

// Account is a marketplace identity with an embedded wallet balance.
// The platform escrow account is the lowest-id admin row.
type Account struct {
	ID            int64             `gorm:"column:id;primaryKey;autoIncrement"`
	Name          string            `gorm:"column:name;not null"`
	Role          enums.AccountRole `gorm:"column:role;type:account_role;not null"`
	WalletBalance decimal.Decimal   `gorm:"column:wallet_balance;type:numeric(14,2);not null"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
