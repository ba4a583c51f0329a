package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	dbpkg "github.com/silkmall/silkmall-backend/pkg/db"
	"github.com/silkmall/silkmall-backend/pkg/db/models"
	"github.com/silkmall/silkmall-backend/pkg/enums"
	pkgerrors "github.com/silkmall/silkmall-backend/pkg/errors"
	"github.com/silkmall/silkmall-backend/pkg/outbox"
	"github.com/silkmall/silkmall-backend/pkg/outbox/payloads"
	"github.com/silkmall/silkmall-backend/pkg/pagination"
)

// ReviewList is one page of reviews.
type ReviewList struct {
	Reviews    []models.ProductReview
	NextCursor string
}

// CreateInput is one review submission for an order item.
type CreateInput struct {
	OrderItemID int64
	AuthorID    int64
	AuthorRole  enums.AccountRole
	Rating      int
	Content     string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service enforces the review gate: delivered orders only, one review per
// item and role.
type Service struct {
	repo   *Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds a reviews service.
func NewService(repo *Repository, tx txRunner, ob outboxPublisher) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Service{repo: repo, tx: tx, outbox: ob}, nil
}

// Create validates the gate and writes the review. Admin authors bypass the
// delivery requirement.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.ProductReview, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRating, "rating must be between 1 and 5")
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "review content required")
	}
	switch input.AuthorRole {
	case enums.AccountRoleConsumer, enums.AccountRoleAdmin:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "consumer or admin role required")
	}

	var created *models.ProductReview
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
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

		if input.AuthorRole == enums.AccountRoleConsumer {
			if order.ConsumerID != input.AuthorID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to account")
			}
			if order.Status != enums.OrderStatusDelivered {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "reviews require a delivered order")
			}
		}

		review := &models.ProductReview{
			OrderItemID: item.ID,
			ProductID:   item.ProductID,
			OrderID:     order.ID,
			AuthorID:    input.AuthorID,
			AuthorRole:  input.AuthorRole,
			Rating:      input.Rating,
			Content:     input.Content,
		}
		if _, err := s.repo.WithTx(tx).Create(ctx, review); err != nil {
			if dbpkg.IsUniqueViolation(err, "product_reviews") {
				return pkgerrors.New(pkgerrors.CodeDuplicateReview, "item already reviewed by this role")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}
		created = review

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReviewCreated,
			AggregateType: enums.AggregateReview,
			AggregateID:   review.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{AccountID: input.AuthorID, Role: input.AuthorRole},
			Data: payloads.ReviewCreatedEvent{
				ReviewID:    review.ID,
				ProductID:   review.ProductID,
				OrderItemID: review.OrderItemID,
				AuthorID:    review.AuthorID,
				AuthorRole:  review.AuthorRole,
				Rating:      review.Rating,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListByProduct pages public reviews for a product.
func (s *Service) ListByProduct(ctx context.Context, productID int64, params pagination.Params) (*ReviewList, error) {
	list, err := s.repo.ListByProduct(ctx, productID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list product reviews")
	}
	return list, nil
}

// ListByOrder returns the reviews attached to one order.
func (s *Service) ListByOrder(ctx context.Context, orderID int64) ([]models.ProductReview, error) {
	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order reviews")
	}
	return rows, nil
}
