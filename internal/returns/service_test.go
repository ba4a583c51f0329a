package returns

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/silkmall/silkmall-backend/internal/accounts"
	"github.com/silkmall/silkmall-backend/internal/wallet"
	"github.com/silkmall/silkmall-backend/pkg/config"
	dbpkg "github.com/silkmall/silkmall-backend/pkg/db"
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

func (r testTxRunner) WithConflictRetry(ctx context.Context, policy dbpkg.RetryPolicy, fn func(tx *gorm.DB) error) error {
	return r.WithTx(ctx, fn)
}

type recordingOutbox struct {
	events []outbox.DomainEvent
}

func (s *recordingOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type returnsHarness struct {
	db       *gorm.DB
	svc      *Service
	outbox   *recordingOutbox
	consumer *models.Account
	supplier *models.Account
	escrow   *models.Account
}

func newReturnsHarness(t *testing.T) *returnsHarness {
	t.Helper()

	dsn := "file:returns_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Account{}, &models.Order{}, &models.OrderItem{}, &models.ReturnRequest{}, &models.WalletEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	accountsRepo := accounts.NewRepository(db)
	ctx := context.Background()
	escrow, err := accountsRepo.Create(ctx, "platform", enums.AccountRoleAdmin, decimal.RequireFromString("100.00"))
	if err != nil {
		t.Fatalf("seed escrow: %v", err)
	}
	consumer, err := accountsRepo.Create(ctx, "Jamie", enums.AccountRoleConsumer, decimal.Zero)
	if err != nil {
		t.Fatalf("seed consumer: %v", err)
	}
	supplier, err := accountsRepo.Create(ctx, "Silk Goods Co", enums.AccountRoleSupplier, decimal.RequireFromString("100.00"))
	if err != nil {
		t.Fatalf("seed supplier: %v", err)
	}

	ob := &recordingOutbox{}
	policy := &LedgerRefundPolicy{Wallet: &wallet.Ledger{}, Accounts: accountsRepo}
	cfg := config.MarketplaceConfig{CommissionRate: decimal.RequireFromString("0.05"), TxMaxRetries: 1}
	svc, err := NewService(NewRepository(db), testTxRunner{db: db}, ob, policy, nil, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	return &returnsHarness{db: db, svc: svc, outbox: ob, consumer: consumer, supplier: supplier, escrow: escrow}
}

func (h *returnsHarness) seedDeliveredItem(t *testing.T, lineTotal string) *models.OrderItem {
	t.Helper()
	return h.seedItem(t, enums.OrderStatusDelivered, lineTotal)
}

func (h *returnsHarness) seedItem(t *testing.T, status enums.OrderStatus, lineTotal string) *models.OrderItem {
	t.Helper()

	total := decimal.RequireFromString(lineTotal)
	order := &models.Order{
		OrderNumber:      uuid.NewString(),
		ConsumerID:       h.consumer.ID,
		Status:           status,
		PayoutStatus:     enums.PayoutStatusPending,
		TotalAmount:      total,
		CommissionAmount: total.Mul(decimal.RequireFromString("0.05")).Round(2),
		ContactName:      "Jamie",
		ContactPhone:     "555-0100",
		ShippingAddress:  "1 Market St",
	}
	if err := h.db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	item := &models.OrderItem{
		OrderID:     order.ID,
		ProductID:   1,
		SupplierID:  h.supplier.ID,
		ProductName: "Silk scarf",
		UnitPrice:   total,
		Quantity:    1,
		LineTotal:   total,
	}
	if err := h.db.Create(item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func (h *returnsHarness) balance(t *testing.T, accountID int64) decimal.Decimal {
	t.Helper()
	var account models.Account
	if err := h.db.First(&account, accountID).Error; err != nil {
		t.Fatalf("reload account: %v", err)
	}
	return account.WalletBalance
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

func TestCreateFreezesRefundBreakdown(t *testing.T) {
	h := newReturnsHarness(t)
	ctx := context.Background()
	item := h.seedDeliveredItem(t, "40.00")

	request, err := h.svc.Create(ctx, CreateInput{OrderItemID: item.ID, ConsumerID: h.consumer.ID, Reason: "damaged seam"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if request.Status != enums.ReturnStatusPending {
		t.Fatalf("unexpected status %s", request.Status)
	}
	if !request.RefundAmount.Equal(decimal.RequireFromString("40.00")) {
		t.Fatalf("unexpected refund %s", request.RefundAmount)
	}
	if !request.CommissionAmount.Equal(decimal.RequireFromString("2.00")) {
		t.Fatalf("unexpected commission %s", request.CommissionAmount)
	}
	if !request.SupplierAmount.Equal(decimal.RequireFromString("38.00")) {
		t.Fatalf("unexpected supplier share %s", request.SupplierAmount)
	}
	if len(h.outbox.events) != 1 || h.outbox.events[0].EventType != enums.EventReturnRequested {
		t.Fatalf("unexpected events %+v", h.outbox.events)
	}
}

func TestCreateRequiresDeliveredOrder(t *testing.T) {
	h := newReturnsHarness(t)
	ctx := context.Background()
	item := h.seedItem(t, enums.OrderStatusShipped, "40.00")

	_, err := h.svc.Create(ctx, CreateInput{OrderItemID: item.ID, ConsumerID: h.consumer.ID, Reason: "wrong color"})
	assertCode(t, err, pkgerrors.CodeReturnNotEligible)
}

func TestCreateRejectsDuplicateActiveReturn(t *testing.T) {
	h := newReturnsHarness(t)
	ctx := context.Background()
	item := h.seedDeliveredItem(t, "40.00")

	if _, err := h.svc.Create(ctx, CreateInput{OrderItemID: item.ID, ConsumerID: h.consumer.ID, Reason: "damaged"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := h.svc.Create(ctx, CreateInput{OrderItemID: item.ID, ConsumerID: h.consumer.ID, Reason: "still damaged"})
	assertCode(t, err, pkgerrors.CodeDuplicateReturn)
}

func TestCreateAllowedAgainAfterRejection(t *testing.T) {
	h := newReturnsHarness(t)
	ctx := context.Background()
	item := h.seedDeliveredItem(t, "40.00")

	first, err := h.svc.Create(ctx, CreateInput{OrderItemID: item.ID, ConsumerID: h.consumer.ID, Reason: "damaged"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := h.svc.Process(ctx, ProcessInput{RequestID: first.ID, NewStatus: enums.ReturnStatusRejected, ActorID: h.supplier.ID, Role: enums.AccountRoleSupplier}); err != nil {
		t.Fatalf("reject: %v", err)
	}

	if _, err := h.svc.Create(ctx, CreateInput{OrderItemID: item.ID, ConsumerID: h.consumer.ID, Reason: "damaged again"}); err != nil {
		t.Fatalf("second create after rejection: %v", err)
	}
}

func TestCreateRejectsOtherConsumer(t *testing.T) {
	h := newReturnsHarness(t)
	ctx := context.Background()
	item := h.seedDeliveredItem(t, "40.00")

	_, err := h.svc.Create(ctx, CreateInput{OrderItemID: item.ID, ConsumerID: h.consumer.ID + 100, Reason: "not mine"})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestSupplierCannotCompleteOrTouchOthers(t *testing.T) {
	h := newReturnsHarness(t)
	ctx := context.Background()
	item := h.seedDeliveredItem(t, "40.00")

	request, err := h.svc.Create(ctx, CreateInput{OrderItemID: item.ID, ConsumerID: h.consumer.ID, Reason: "damaged"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = h.svc.Process(ctx, ProcessInput{RequestID: request.ID, NewStatus: enums.ReturnStatusApproved, ActorID: h.supplier.ID + 100, Role: enums.AccountRoleSupplier})
	assertCode(t, err, pkgerrors.CodeForbidden)

	if _, err := h.svc.Process(ctx, ProcessInput{RequestID: request.ID, NewStatus: enums.ReturnStatusApproved, ActorID: h.supplier.ID, Role: enums.AccountRoleSupplier}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, err = h.svc.Process(ctx, ProcessInput{RequestID: request.ID, NewStatus: enums.ReturnStatusCompleted, ActorID: h.supplier.ID, Role: enums.AccountRoleSupplier})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestCompleteSettlesRefundAndMarksOrder(t *testing.T) {
	h := newReturnsHarness(t)
	ctx := context.Background()
	item := h.seedDeliveredItem(t, "40.00")

	request, err := h.svc.Create(ctx, CreateInput{OrderItemID: item.ID, ConsumerID: h.consumer.ID, Reason: "damaged"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := h.svc.Process(ctx, ProcessInput{RequestID: request.ID, NewStatus: enums.ReturnStatusApproved, ActorID: h.supplier.ID, Role: enums.AccountRoleSupplier}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	completed, err := h.svc.Process(ctx, ProcessInput{RequestID: request.ID, NewStatus: enums.ReturnStatusCompleted, ActorID: h.escrow.ID, Role: enums.AccountRoleAdmin})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != enums.ReturnStatusCompleted {
		t.Fatalf("unexpected status %s", completed.Status)
	}

	if got := h.balance(t, h.consumer.ID); !got.Equal(decimal.RequireFromString("40.00")) {
		t.Fatalf("unexpected consumer balance %s", got)
	}
	if got := h.balance(t, h.supplier.ID); !got.Equal(decimal.RequireFromString("62.00")) {
		t.Fatalf("unexpected supplier balance %s", got)
	}
	if got := h.balance(t, h.escrow.ID); !got.Equal(decimal.RequireFromString("98.00")) {
		t.Fatalf("unexpected escrow balance %s", got)
	}

	var order models.Order
	if err := h.db.First(&order, request.OrderID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if order.PayoutStatus != enums.PayoutStatusRefunded {
		t.Fatalf("unexpected payout status %s", order.PayoutStatus)
	}

	last := h.outbox.events[len(h.outbox.events)-1]
	if last.EventType != enums.EventReturnCompleted {
		t.Fatalf("unexpected event %s", last.EventType)
	}
}

func TestCompleteRequiresApprovedRequest(t *testing.T) {
	h := newReturnsHarness(t)
	ctx := context.Background()
	item := h.seedDeliveredItem(t, "40.00")

	request, err := h.svc.Create(ctx, CreateInput{OrderItemID: item.ID, ConsumerID: h.consumer.ID, Reason: "damaged"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = h.svc.Process(ctx, ProcessInput{RequestID: request.ID, NewStatus: enums.ReturnStatusCompleted, ActorID: h.escrow.ID, Role: enums.AccountRoleAdmin})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestProcessRejectsUnknownTarget(t *testing.T) {
	h := newReturnsHarness(t)
	ctx := context.Background()

	_, err := h.svc.Process(ctx, ProcessInput{RequestID: 12345, NewStatus: enums.ReturnStatusApproved, ActorID: h.escrow.ID, Role: enums.AccountRoleAdmin})
	assertCode(t, err, pkgerrors.CodeNotFound)

	item := h.seedDeliveredItem(t, "40.00")
	request, err := h.svc.Create(ctx, CreateInput{OrderItemID: item.ID, ConsumerID: h.consumer.ID, Reason: "damaged"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = h.svc.Process(ctx, ProcessInput{RequestID: request.ID, NewStatus: enums.ReturnStatusPending, ActorID: h.escrow.ID, Role: enums.AccountRoleAdmin})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestListForSupplierScopes(t *testing.T) {
	h := newReturnsHarness(t)
	ctx := context.Background()
	item := h.seedDeliveredItem(t, "40.00")

	if _, err := h.svc.Create(ctx, CreateInput{OrderItemID: item.ID, ConsumerID: h.consumer.ID, Reason: "damaged"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	mine, err := h.svc.ListForSupplier(ctx, h.supplier.ID, pagination.Params{})
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine.Requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(mine.Requests))
	}

	other, err := h.svc.ListForSupplier(ctx, h.supplier.ID+100, pagination.Params{})
	if err != nil {
		t.Fatalf("list other: %v", err)
	}
	if len(other.Requests) != 0 {
		t.Fatalf("expected no requests, got %d", len(other.Requests))
	}
}

func TestProcessRecordsResolution(t *testing.T) {
	h := newReturnsHarness(t)
	ctx := context.Background()
	item := h.seedDeliveredItem(t, "40.00")

	request, err := h.svc.Create(ctx, CreateInput{OrderItemID: item.ID, ConsumerID: h.consumer.ID, Reason: "damaged"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	approved, err := h.svc.Process(ctx, ProcessInput{
		RequestID:  request.ID,
		NewStatus:  enums.ReturnStatusApproved,
		Resolution: "replacement out of stock, refund instead",
		ActorID:    h.supplier.ID,
		Role:       enums.AccountRoleSupplier,
	})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Resolution != "replacement out of stock, refund instead" {
		t.Fatalf("unexpected resolution %q", approved.Resolution)
	}

	var stored models.ReturnRequest
	if err := h.db.First(&stored, request.ID).Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if stored.Resolution != "replacement out of stock, refund instead" {
		t.Fatalf("resolution not persisted, got %q", stored.Resolution)
	}

	// completion without a note keeps the supplier's resolution
	if _, err := h.svc.Process(ctx, ProcessInput{
		RequestID: request.ID,
		NewStatus: enums.ReturnStatusCompleted,
		ActorID:   h.escrow.ID,
		Role:      enums.AccountRoleAdmin,
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := h.db.First(&stored, request.ID).Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if stored.Resolution != "replacement out of stock, refund instead" {
		t.Fatalf("resolution overwritten, got %q", stored.Resolution)
	}
}

func TestCreateRejectsClosedReturnWindow(t *testing.T) {
	h := newReturnsHarness(t)
	h.svc.cfg.ReturnWindowDay = 30

	item := h.seedDeliveredItem(t, "40.00")
	deliveredAt := time.Now().AddDate(0, 0, -31)
	if err := h.db.Model(&models.Order{}).Where("id = ?", item.OrderID).
		Update("delivered_at", deliveredAt).Error; err != nil {
		t.Fatalf("backdate delivery: %v", err)
	}

	_, err := h.svc.Create(context.Background(), CreateInput{
		OrderItemID: item.ID,
		ConsumerID:  h.consumer.ID,
		Reason:      "color faded",
	})
	assertCode(t, err, pkgerrors.CodeReturnNotEligible)
}

func TestCreateAllowedInsideReturnWindow(t *testing.T) {
	h := newReturnsHarness(t)
	h.svc.cfg.ReturnWindowDay = 30

	item := h.seedDeliveredItem(t, "40.00")
	deliveredAt := time.Now().AddDate(0, 0, -5)
	if err := h.db.Model(&models.Order{}).Where("id = ?", item.OrderID).
		Update("delivered_at", deliveredAt).Error; err != nil {
		t.Fatalf("backdate delivery: %v", err)
	}

	request, err := h.svc.Create(context.Background(), CreateInput{
		OrderItemID: item.ID,
		ConsumerID:  h.consumer.ID,
		Reason:      "color faded",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if request.Status != enums.ReturnStatusPending {
		t.Fatalf("unexpected status %s", request.Status)
	}
}
