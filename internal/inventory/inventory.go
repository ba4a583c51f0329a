package inventory

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"

	"github.com/silkmall/silkmall-backend/pkg/db/models"
	"github.com/silkmall/silkmall-backend/pkg/enums"
	pkgerrors "github.com/silkmall/silkmall-backend/pkg/errors"
)

// Reservation is one stock decrement request.
type Reservation struct {
	ProductID int64
	Qty       int
}

// Ledger applies stock movements inside a caller-owned transaction.
type Ledger struct{}

// NewLedger exposes the default inventory ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Reserve decrements stock for every reservation, in ascending product-id
// order so concurrent checkouts touch rows in a stable sequence. A zero-row
// update is classified with a diagnostic read before failing.
func (l *Ledger) Reserve(ctx context.Context, tx *gorm.DB, reservations []Reservation) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory reserve")
	}
	sorted := make([]Reservation, len(reservations))
	copy(sorted, reservations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	for _, res := range sorted {
		if res.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "reservation quantity must be positive")
		}
		out := tx.WithContext(ctx).Exec(`
			UPDATE products
			SET stock = stock - ?
			WHERE id = ? AND status = ? AND stock >= ?
		`, res.Qty, res.ProductID, enums.ProductStatusOnSale, res.Qty)
		if out.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, out.Error, "reserve stock")
		}
		if out.RowsAffected == 0 {
			return l.classifyReserveFailure(ctx, tx, res)
		}
	}
	return nil
}

func (l *Ledger) classifyReserveFailure(ctx context.Context, tx *gorm.DB, res Reservation) error {
	var product models.Product
	err := tx.WithContext(ctx).First(&product, "id = ?", res.ProductID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.Status != enums.ProductStatusOnSale {
		return pkgerrors.New(pkgerrors.CodeProductUnavailable, "product is not on sale")
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock")
}

// Release returns reserved stock, e.g. on cancellation.
func (l *Ledger) Release(ctx context.Context, tx *gorm.DB, productID int64, qty int) error {
	if qty <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory release")
	}
	out := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET stock = stock + ?
		WHERE id = ?
	`, qty, productID)
	if out.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, out.Error, "release stock")
	}
	if out.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

// IncrementSales bumps the sales counter when an order is delivered.
func (l *Ledger) IncrementSales(ctx context.Context, tx *gorm.DB, productID int64, qty int) error {
	if qty <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for sales increment")
	}
	out := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET sales = sales + ?
		WHERE id = ?
	`, qty, productID)
	if out.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, out.Error, "increment sales")
	}
	return nil
}
