package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/silkmall/silkmall-backend/pkg/db/models"
	"github.com/silkmall/silkmall-backend/pkg/enums"
	"github.com/silkmall/silkmall-backend/pkg/pagination"
)

// Repository defines persistence operations for order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	FindByOrderNumber(ctx context.Context, number string) (*models.Order, error)
	ListByConsumer(ctx context.Context, consumerID int64, params pagination.Params, filters ListFilters) (*OrderList, error)
	ListBySupplier(ctx context.Context, supplierID int64, params pagination.Params, filters ListFilters) (*OrderList, error)
	ListAll(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
	// TransitionStatus applies updates only when the order currently holds one
	// of the from statuses; false means the guard did not match.
	TransitionStatus(ctx context.Context, orderID int64, from []enums.OrderStatus, updates map[string]any) (bool, error)
	// TransitionPayout moves payout_status from one value to another, guarded
	// on the order also holding one of requireStatus. At most one concurrent
	// caller wins.
	TransitionPayout(ctx context.Context, orderID int64, requireStatus []enums.OrderStatus, from, to enums.PayoutStatus) (bool, error)
	UpdateContact(ctx context.Context, orderID, consumerID int64, contact ContactInfo) (bool, error)
}
