package wallet

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/silkmall/silkmall-backend/pkg/db/models"
	"github.com/silkmall/silkmall-backend/pkg/enums"
	pkgerrors "github.com/silkmall/silkmall-backend/pkg/errors"
)

// Ledger applies balance movements inside a caller-owned transaction. Every
// movement writes an append-only wallet_entries row alongside the balance
// update.
type Ledger struct{}

// NewLedger exposes the default wallet ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Debit conditionally decrements a balance. It fails with INSUFFICIENT_FUNDS
// rather than clamping at zero.
func (l *Ledger) Debit(ctx context.Context, tx *gorm.DB, accountID int64, orderID *int64, kind enums.WalletEntryKind, amount decimal.Decimal) error {
	if err := validateMovement(tx, amount); err != nil {
		return err
	}
	out := tx.WithContext(ctx).Exec(`
		UPDATE accounts
		SET wallet_balance = wallet_balance - ?
		WHERE id = ? AND wallet_balance >= ?
	`, amount, accountID, amount)
	if out.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, out.Error, "debit wallet")
	}
	if out.RowsAffected == 0 {
		return l.classifyDebitFailure(ctx, tx, accountID)
	}
	return l.record(ctx, tx, accountID, orderID, enums.WalletEntryDebit, kind, amount)
}

// Credit increments a balance.
func (l *Ledger) Credit(ctx context.Context, tx *gorm.DB, accountID int64, orderID *int64, kind enums.WalletEntryKind, amount decimal.Decimal) error {
	if err := validateMovement(tx, amount); err != nil {
		return err
	}
	out := tx.WithContext(ctx).Exec(`
		UPDATE accounts
		SET wallet_balance = wallet_balance + ?
		WHERE id = ?
	`, amount, accountID)
	if out.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, out.Error, "credit wallet")
	}
	if out.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	return l.record(ctx, tx, accountID, orderID, enums.WalletEntryCredit, kind, amount)
}

func (l *Ledger) classifyDebitFailure(ctx context.Context, tx *gorm.DB, accountID int64) error {
	var account models.Account
	err := tx.WithContext(ctx).First(&account, "id = ?", accountID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "insufficient balance")
}

func (l *Ledger) record(ctx context.Context, tx *gorm.DB, accountID int64, orderID *int64, direction enums.WalletEntryDirection, kind enums.WalletEntryKind, amount decimal.Decimal) error {
	entry := models.WalletEntry{
		AccountID: accountID,
		OrderID:   orderID,
		Direction: direction,
		Kind:      kind,
		Amount:    amount,
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record wallet entry")
	}
	return nil
}

func validateMovement(tx *gorm.DB, amount decimal.Decimal) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for wallet movement")
	}
	if amount.Sign() <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return nil
}
