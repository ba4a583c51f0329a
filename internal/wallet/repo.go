package wallet

import (
	"context"

	"gorm.io/gorm"

	"github.com/silkmall/silkmall-backend/pkg/db/models"
)

// Repository exposes wallet read operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wallet repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindAccount loads the account row backing a wallet.
func (r *Repository) FindAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", accountID).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// ListEntries returns the most recent ledger entries for an account.
func (r *Repository) ListEntries(ctx context.Context, accountID int64, limit int) ([]models.WalletEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.WalletEntry
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
