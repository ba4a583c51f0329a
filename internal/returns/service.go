package returns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/silkmall/silkmall-backend/internal/accounts"
	"github.com/silkmall/silkmall-backend/pkg/config"
	dbpkg "github.com/silkmall/silkmall-backend/pkg/db"
	"github.com/silkmall/silkmall-backend/pkg/db/models"
	"github.com/silkmall/silkmall-backend/pkg/enums"
	pkgerrors "github.com/silkmall/silkmall-backend/pkg/errors"
	"github.com/silkmall/silkmall-backend/pkg/metrics"
	"github.com/silkmall/silkmall-backend/pkg/outbox"
	"github.com/silkmall/silkmall-backend/pkg/outbox/payloads"
	"github.com/silkmall/silkmall-backend/pkg/pagination"
)

// RequestList is one page of return requests.
type RequestList struct {
	Requests   []models.ReturnRequest
	NextCursor string
}

// CreateInput opens a return for one order item.
type CreateInput struct {
	OrderItemID int64
	ConsumerID  int64
	Reason      string
}

// ProcessInput is a supplier or admin decision on a request. Resolution is
// the free-text note the decider leaves for the consumer.
type ProcessInput struct {
	RequestID  int64
	NewStatus  enums.ReturnStatus
	Resolution string
	ActorID    int64
	Role       enums.AccountRole
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
	WithConflictRetry(ctx context.Context, policy dbpkg.RetryPolicy, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type walletLedger interface {
	Debit(ctx context.Context, tx *gorm.DB, accountID int64, orderID *int64, kind enums.WalletEntryKind, amount decimal.Decimal) error
	Credit(ctx context.Context, tx *gorm.DB, accountID int64, orderID *int64, kind enums.WalletEntryKind, amount decimal.Decimal) error
}

// RefundPolicy applies the compensating money movement when a return
// completes. Implementations run inside the completion transaction.
type RefundPolicy interface {
	Settle(ctx context.Context, tx *gorm.DB, request *models.ReturnRequest) error
}

// LedgerRefundPolicy is the default policy: the supplier gives back their
// share, escrow gives back the commission, and the consumer is made whole.
type LedgerRefundPolicy struct {
	Wallet   walletLedger
	Accounts *accounts.Repository
}

// Settle moves the frozen refund breakdown back to the consumer.
func (p *LedgerRefundPolicy) Settle(ctx context.Context, tx *gorm.DB, request *models.ReturnRequest) error {
	if err := p.Wallet.Debit(ctx, tx, request.SupplierID, &request.OrderID, enums.WalletEntryKindRefund, request.SupplierAmount); err != nil {
		return err
	}
	if request.CommissionAmount.Sign() > 0 {
		escrow, err := p.Accounts.WithTx(tx).FirstAdmin(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve escrow account")
		}
		if err := p.Wallet.Debit(ctx, tx, escrow.ID, &request.OrderID, enums.WalletEntryKindCommission, request.CommissionAmount); err != nil {
			return err
		}
	}
	return p.Wallet.Credit(ctx, tx, request.ConsumerID, &request.OrderID, enums.WalletEntryKindRefund, request.RefundAmount)
}

// Service runs the return/refund workflow.
type Service struct {
	repo    *Repository
	tx      txRunner
	outbox  outboxPublisher
	policy  RefundPolicy
	metrics *metrics.MarketplaceMetrics
	cfg     config.MarketplaceConfig
}

// NewService builds a returns service.
func NewService(repo *Repository, tx txRunner, ob outboxPublisher, policy RefundPolicy, mm *metrics.MarketplaceMetrics, cfg config.MarketplaceConfig) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("returns repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if policy == nil {
		return nil, fmt.Errorf("refund policy required")
	}
	return &Service{repo: repo, tx: tx, outbox: ob, policy: policy, metrics: mm, cfg: cfg}, nil
}

func (s *Service) retryPolicy() dbpkg.RetryPolicy {
	return dbpkg.RetryPolicy{MaxAttempts: s.cfg.TxMaxRetries, Backoff: s.cfg.TxRetryBackoff}
}

// Create opens a return request for a delivered order item. The refund
// breakdown is frozen here so later commission changes cannot shift it.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.ReturnRequest, error) {
	if input.OrderItemID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order item id required")
	}
	var created *models.ReturnRequest
	err := s.tx.WithConflictRetry(ctx, s.retryPolicy(), func(tx *gorm.DB) error {
		var item models.OrderItem
		if err := tx.WithContext(ctx).First(&item, "id = ?", input.OrderItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
		}
		var order models.Order
		if err := tx.WithContext(ctx).First(&order, "id = ?", item.OrderID).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.ConsumerID != input.ConsumerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to account")
		}
		if order.Status != enums.OrderStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeReturnNotEligible, "returns require a delivered order")
		}
		if s.cfg.ReturnWindowDay > 0 && order.DeliveredAt != nil {
			deadline := order.DeliveredAt.AddDate(0, 0, s.cfg.ReturnWindowDay)
			if time.Now().After(deadline) {
				return pkgerrors.New(pkgerrors.CodeReturnNotEligible, "return window has closed").
					WithDetails(map[string]any{"deliveredAt": order.DeliveredAt, "windowDays": s.cfg.ReturnWindowDay})
			}
		}

		repo := s.repo.WithTx(tx)
		active, err := repo.HasActiveForItem(ctx, item.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active returns")
		}
		if active {
			return pkgerrors.New(pkgerrors.CodeDuplicateReturn, "an active return already exists for this item")
		}

		refund := item.LineTotal
		commission := refund.Mul(s.cfg.CommissionRate).Round(2)
		if commission.GreaterThan(refund) {
			commission = refund
		}
		request := &models.ReturnRequest{
			OrderItemID:      item.ID,
			OrderID:          order.ID,
			ConsumerID:       order.ConsumerID,
			SupplierID:       item.SupplierID,
			Reason:           input.Reason,
			Status:           enums.ReturnStatusPending,
			RefundAmount:     refund,
			CommissionAmount: commission,
			SupplierAmount:   refund.Sub(commission),
		}
		if _, err := repo.Create(ctx, request); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_return_requests_active_item") {
				return pkgerrors.New(pkgerrors.CodeDuplicateReturn, "an active return already exists for this item")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create return request")
		}
		created = request

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReturnRequested,
			AggregateType: enums.AggregateReturnRequest,
			AggregateID:   request.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{AccountID: input.ConsumerID, Role: enums.AccountRoleConsumer},
			Data: payloads.ReturnRequestedEvent{
				ReturnRequestID: request.ID,
				OrderItemID:     request.OrderItemID,
				OrderID:         request.OrderID,
				ConsumerID:      request.ConsumerID,
				SupplierID:      request.SupplierID,
				RefundAmount:    request.RefundAmount,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Process applies a supplier or admin decision. Suppliers may approve or
// reject their own requests; completion is an admin-only move from approved.
func (s *Service) Process(ctx context.Context, input ProcessInput) (*models.ReturnRequest, error) {
	from, err := allowedTransitionFrom(input.NewStatus)
	if err != nil {
		return nil, err
	}

	var processed *models.ReturnRequest
	err = s.tx.WithConflictRetry(ctx, s.retryPolicy(), func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := repo.FindByID(ctx, input.RequestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "return request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return request")
		}
		if err := authorizeDecision(request, input); err != nil {
			return err
		}

		moved, err := repo.Transition(ctx, request.ID, from, input.NewStatus, input.ActorID, input.Resolution)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition return request")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("return request is not %s", from))
		}
		request.Status = input.NewStatus
		if input.Resolution != "" {
			request.Resolution = input.Resolution
		}

		if input.NewStatus == enums.ReturnStatusCompleted {
			if err := s.policy.Settle(ctx, tx, request); err != nil {
				return err
			}
			// one refunded item marks the whole order's payout refunded
			if err := tx.WithContext(ctx).Model(&models.Order{}).
				Where("id = ?", request.OrderID).
				Update("payout_status", enums.PayoutStatusRefunded).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order payout refunded")
			}
			processed = request
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventReturnCompleted,
				AggregateType: enums.AggregateReturnRequest,
				AggregateID:   request.ID,
				Version:       1,
				Actor:         &outbox.ActorRef{AccountID: input.ActorID, Role: input.Role},
				Data: payloads.ReturnCompletedEvent{
					ReturnRequestID:  request.ID,
					OrderItemID:      request.OrderItemID,
					ConsumerID:       request.ConsumerID,
					SupplierID:       request.SupplierID,
					RefundAmount:     request.RefundAmount,
					CommissionAmount: request.CommissionAmount,
					SupplierAmount:   request.SupplierAmount,
				},
			})
		}

		processed = request
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReturnProcessed,
			AggregateType: enums.AggregateReturnRequest,
			AggregateID:   request.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{AccountID: input.ActorID, Role: input.Role},
			Data: payloads.ReturnProcessedEvent{
				ReturnRequestID: request.ID,
				OrderItemID:     request.OrderItemID,
				Status:          request.Status,
				Resolution:      request.Resolution,
				ProcessedBy:     input.ActorID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	if input.NewStatus == enums.ReturnStatusCompleted {
		s.metrics.IncReturnCompleted()
	}
	return processed, nil
}

// ListForConsumer pages a consumer's return requests.
func (s *Service) ListForConsumer(ctx context.Context, consumerID int64, params pagination.Params) (*RequestList, error) {
	list, err := s.repo.ListByConsumer(ctx, consumerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list consumer returns")
	}
	return list, nil
}

// ListForSupplier pages requests targeting a supplier.
func (s *Service) ListForSupplier(ctx context.Context, supplierID int64, params pagination.Params) (*RequestList, error) {
	list, err := s.repo.ListBySupplier(ctx, supplierID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list supplier returns")
	}
	return list, nil
}

// ListQueue pages the pending requests awaiting a decision.
func (s *Service) ListQueue(ctx context.Context, params pagination.Params) (*RequestList, error) {
	list, err := s.repo.ListPending(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending returns")
	}
	return list, nil
}

func allowedTransitionFrom(to enums.ReturnStatus) (enums.ReturnStatus, error) {
	switch to {
	case enums.ReturnStatusApproved, enums.ReturnStatusRejected:
		return enums.ReturnStatusPending, nil
	case enums.ReturnStatusCompleted:
		return enums.ReturnStatusApproved, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cannot move a return request to %s", to))
	}
}

func authorizeDecision(request *models.ReturnRequest, input ProcessInput) error {
	switch input.Role {
	case enums.AccountRoleAdmin:
		return nil
	case enums.AccountRoleSupplier:
		if request.SupplierID != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "return request targets another supplier")
		}
		if input.NewStatus == enums.ReturnStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeForbidden, "completion requires an admin")
		}
		if request.Status == enums.ReturnStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "return request already completed")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "supplier or admin role required")
	}
}
