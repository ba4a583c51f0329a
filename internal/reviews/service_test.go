package reviews

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/silkmall/silkmall-backend/pkg/db/models"
	"github.com/silkmall/silkmall-backend/pkg/enums"
	pkgerrors "github.com/silkmall/silkmall-backend/pkg/errors"
	"github.com/silkmall/silkmall-backend/pkg/outbox"
	"github.com/silkmall/silkmall-backend/pkg/pagination"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

type recordingOutbox struct {
	events []outbox.DomainEvent
}

func (s *recordingOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type reviewsHarness struct {
	db     *gorm.DB
	svc    *Service
	outbox *recordingOutbox
}

func newReviewsHarness(t *testing.T) *reviewsHarness {
	t.Helper()

	dsn := "file:reviews_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.ProductReview{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ob := &recordingOutbox{}
	svc, err := NewService(NewRepository(db), testTxRunner{db: db}, ob)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return &reviewsHarness{db: db, svc: svc, outbox: ob}
}

func (h *reviewsHarness) seedItem(t *testing.T, consumerID int64, status enums.OrderStatus) *models.OrderItem {
	t.Helper()

	order := &models.Order{
		OrderNumber:      uuid.NewString(),
		ConsumerID:       consumerID,
		Status:           status,
		PayoutStatus:     enums.PayoutStatusPending,
		TotalAmount:      decimal.RequireFromString("20.00"),
		CommissionAmount: decimal.RequireFromString("1.00"),
		ContactName:      "Jamie",
		ContactPhone:     "555-0100",
		ShippingAddress:  "1 Market St",
	}
	if err := h.db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	item := &models.OrderItem{
		OrderID:     order.ID,
		ProductID:   9,
		SupplierID:  3,
		ProductName: "Silk scarf",
		UnitPrice:   decimal.RequireFromString("20.00"),
		Quantity:    1,
		LineTotal:   decimal.RequireFromString("20.00"),
	}
	if err := h.db.Create(item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func assertCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()
	coded := pkgerrors.As(err)
	if coded == nil {
		t.Fatalf("expected coded error, got %v", err)
	}
	if coded.Code() != want {
		t.Fatalf("expected code %s, got %s", want, coded.Code())
	}
}

func TestCreateAfterDelivery(t *testing.T) {
	h := newReviewsHarness(t)
	ctx := context.Background()
	item := h.seedItem(t, 7, enums.OrderStatusDelivered)

	review, err := h.svc.Create(ctx, CreateInput{
		OrderItemID: item.ID,
		AuthorID:    7,
		AuthorRole:  enums.AccountRoleConsumer,
		Rating:      4,
		Content:     "soft fabric, slow shipping",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if review.ProductID != item.ProductID || review.Rating != 4 {
		t.Fatalf("unexpected review %+v", review)
	}
	if len(h.outbox.events) != 1 || h.outbox.events[0].EventType != enums.EventReviewCreated {
		t.Fatalf("unexpected events %+v", h.outbox.events)
	}
}

func TestCreateRejectsInvalidRating(t *testing.T) {
	h := newReviewsHarness(t)
	ctx := context.Background()
	item := h.seedItem(t, 7, enums.OrderStatusDelivered)

	for _, rating := range []int{0, -1, 6} {
		_, err := h.svc.Create(ctx, CreateInput{
			OrderItemID: item.ID,
			AuthorID:    7,
			AuthorRole:  enums.AccountRoleConsumer,
			Rating:      rating,
			Content:     "bad rating",
		})
		assertCode(t, err, pkgerrors.CodeInvalidRating)
	}
}

func TestCreateRequiresDeliveredOrderForConsumers(t *testing.T) {
	h := newReviewsHarness(t)
	ctx := context.Background()
	item := h.seedItem(t, 7, enums.OrderStatusShipped)

	_, err := h.svc.Create(ctx, CreateInput{
		OrderItemID: item.ID,
		AuthorID:    7,
		AuthorRole:  enums.AccountRoleConsumer,
		Rating:      5,
		Content:     "too early",
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestAdminBypassesDeliveryGate(t *testing.T) {
	h := newReviewsHarness(t)
	ctx := context.Background()
	item := h.seedItem(t, 7, enums.OrderStatusShipped)

	if _, err := h.svc.Create(ctx, CreateInput{
		OrderItemID: item.ID,
		AuthorID:    1,
		AuthorRole:  enums.AccountRoleAdmin,
		Rating:      2,
		Content:     "moderation note",
	}); err != nil {
		t.Fatalf("admin create: %v", err)
	}
}

func TestCreateRejectsOtherConsumersOrder(t *testing.T) {
	h := newReviewsHarness(t)
	ctx := context.Background()
	item := h.seedItem(t, 7, enums.OrderStatusDelivered)

	_, err := h.svc.Create(ctx, CreateInput{
		OrderItemID: item.ID,
		AuthorID:    8,
		AuthorRole:  enums.AccountRoleConsumer,
		Rating:      5,
		Content:     "not my order",
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestDuplicateReviewPerRoleRejected(t *testing.T) {
	h := newReviewsHarness(t)
	ctx := context.Background()
	item := h.seedItem(t, 7, enums.OrderStatusDelivered)

	first := CreateInput{
		OrderItemID: item.ID,
		AuthorID:    7,
		AuthorRole:  enums.AccountRoleConsumer,
		Rating:      4,
		Content:     "nice",
	}
	if _, err := h.svc.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := h.svc.Create(ctx, first)
	assertCode(t, err, pkgerrors.CodeDuplicateReview)

	// a different role may still review the same item
	if _, err := h.svc.Create(ctx, CreateInput{
		OrderItemID: item.ID,
		AuthorID:    1,
		AuthorRole:  enums.AccountRoleAdmin,
		Rating:      3,
		Content:     "flagged wording",
	}); err != nil {
		t.Fatalf("admin review: %v", err)
	}
}

func TestListByProductPaginates(t *testing.T) {
	h := newReviewsHarness(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		item := h.seedItem(t, 7, enums.OrderStatusDelivered)
		if _, err := h.svc.Create(ctx, CreateInput{
			OrderItemID: item.ID,
			AuthorID:    7,
			AuthorRole:  enums.AccountRoleConsumer,
			Rating:      5,
			Content:     "great",
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	page, err := h.svc.ListByProduct(ctx, 9, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Reviews) != 2 || page.NextCursor == "" {
		t.Fatalf("expected 2 reviews and a cursor, got %d / %q", len(page.Reviews), page.NextCursor)
	}
}
