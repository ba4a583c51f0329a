package accounts

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/silkmall/silkmall-backend/pkg/db/models"
	"github.com/silkmall/silkmall-backend/pkg/enums"
)

// Repository exposes account-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an accounts repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new account with the supplied opening balance.
func (r *Repository) Create(ctx context.Context, name string, role enums.AccountRole, openingBalance decimal.Decimal) (*models.Account, error) {
	account := &models.Account{
		Name:          name,
		Role:          role,
		WalletBalance: openingBalance,
	}
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

// FindByID loads an account by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByRole lists accounts holding the given role in ascending id order.
func (r *Repository) FindByRole(ctx context.Context, role enums.AccountRole) ([]models.Account, error) {
	var rows []models.Account
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// FirstAdmin resolves the platform escrow account: the lowest-id admin row.
func (r *Repository) FirstAdmin(ctx context.Context) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Where("role = ?", enums.AccountRoleAdmin).
		Order("id ASC").
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}
