package returns

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/silkmall/silkmall-backend/pkg/db/models"
	"github.com/silkmall/silkmall-backend/pkg/enums"
	"github.com/silkmall/silkmall-backend/pkg/pagination"
)

// Repository persists return requests.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a returns repository bound to the provided DB.
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

// Create inserts a new return request.
func (r *Repository) Create(ctx context.Context, request *models.ReturnRequest) (*models.ReturnRequest, error) {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

// FindByID loads one return request.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.ReturnRequest, error) {
	var request models.ReturnRequest
	if err := r.db.WithContext(ctx).First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// HasActiveForItem reports whether a pending or approved request already
// exists for the order item.
func (r *Repository) HasActiveForItem(ctx context.Context, orderItemID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReturnRequest{}).
		Where("order_item_id = ? AND status IN ?", orderItemID, []enums.ReturnStatus{
			enums.ReturnStatusPending,
			enums.ReturnStatusApproved,
		}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Transition moves a request from one status to another, recording who
// decided, when, and any resolution note. False means the request was not in
// the from status.
func (r *Repository) Transition(ctx context.Context, id int64, from, to enums.ReturnStatus, processedBy int64, resolution string) (bool, error) {
	now := time.Now().UTC()
	updates := map[string]any{
		"status":       to,
		"processed_by": processedBy,
		"processed_at": now,
	}
	if resolution != "" {
		updates["resolution"] = resolution
	}
	if to == enums.ReturnStatusCompleted {
		updates["completed_at"] = now
	}
	result := r.db.WithContext(ctx).
		Model(&models.ReturnRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListByConsumer pages a consumer's own return requests.
func (r *Repository) ListByConsumer(ctx context.Context, consumerID int64, params pagination.Params) (*RequestList, error) {
	query := r.db.WithContext(ctx).Model(&models.ReturnRequest{}).Where("consumer_id = ?", consumerID)
	return r.list(query, params)
}

// ListBySupplier pages requests targeting the supplier's products.
func (r *Repository) ListBySupplier(ctx context.Context, supplierID int64, params pagination.Params) (*RequestList, error) {
	query := r.db.WithContext(ctx).Model(&models.ReturnRequest{}).Where("supplier_id = ?", supplierID)
	return r.list(query, params)
}

// ListPending pages the admin processing queue, oldest pending first is not
// needed; the queue shares the newest-first cursor shape of other listings.
func (r *Repository) ListPending(ctx context.Context, params pagination.Params) (*RequestList, error) {
	query := r.db.WithContext(ctx).Model(&models.ReturnRequest{}).Where("status = ?", enums.ReturnStatusPending)
	return r.list(query, params)
}

func (r *Repository) list(query *gorm.DB, params pagination.Params) (*RequestList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.ReturnRequest
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &RequestList{}
	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID})
	}
	list.Requests = rows
	return list, nil
}
