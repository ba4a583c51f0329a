package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/silkmall/silkmall-backend/api/middleware"
	"github.com/silkmall/silkmall-backend/internal/reviews"
	"github.com/silkmall/silkmall-backend/pkg/db/models"
	"github.com/silkmall/silkmall-backend/pkg/enums"
	pkgerrors "github.com/silkmall/silkmall-backend/pkg/errors"
	"github.com/silkmall/silkmall-backend/pkg/logger"
	"github.com/silkmall/silkmall-backend/pkg/outbox"
)

type controllerTxRunner struct {
	db *gorm.DB
}

func (r controllerTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

type noopOutbox struct{}

func (noopOutbox) Emit(context.Context, *gorm.DB, outbox.DomainEvent) error { return nil }

func newReviewsControllerHarness(t *testing.T) (*gorm.DB, *reviews.Service, *logger.Logger) {
	t.Helper()

	dsn := "file:controllers_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.ProductReview{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := reviews.NewService(reviews.NewRepository(db), controllerTxRunner{db: db}, noopOutbox{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return db, svc, logg
}

func seedDeliveredReviewItem(t *testing.T, db *gorm.DB, consumerID, productID int64) *models.OrderItem {
	t.Helper()

	order := &models.Order{
		OrderNumber:     uuid.NewString(),
		ConsumerID:      consumerID,
		Status:          enums.OrderStatusDelivered,
		ContactName:     "Jamie",
		ContactPhone:    "555-0100",
		ShippingAddress: "1 Market St",
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	item := &models.OrderItem{
		OrderID:     order.ID,
		ProductID:   productID,
		SupplierID:  900,
		ProductName: "Silk scarf",
		Quantity:    1,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func requestWithParam(method, target, name, value string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(name, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestCreateReviewHandler(t *testing.T) {
	db, svc, logg := newReviewsControllerHarness(t)
	item := seedDeliveredReviewItem(t, db, 7, 3)

	makeRequest := func(body string) *httptest.ResponseRecorder {
		req := requestWithParam(http.MethodPost, "/api/v1/order-items/1/reviews", "itemID", "1", strings.NewReader(body))
		ctx := middleware.WithAccountID(req.Context(), 7)
		ctx = middleware.WithRole(ctx, string(enums.AccountRoleConsumer))
		req = req.WithContext(ctx)
		rec := httptest.NewRecorder()
		CreateReview(svc, logg).ServeHTTP(rec, req)
		return rec
	}

	rec := makeRequest(`{"rating":5,"content":"lovely fabric"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Data struct {
			ID          int64  `json:"id"`
			OrderItemID int64  `json:"orderItemId"`
			Rating      int    `json:"rating"`
			Content     string `json:"content"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if payload.Data.OrderItemID != item.ID || payload.Data.Rating != 5 {
		t.Fatalf("unexpected review payload %+v", payload.Data)
	}

	dup := makeRequest(`{"rating":4,"content":"second thoughts"}`)
	if dup.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate got %d", dup.Code)
	}
	var errPayload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(dup.Body.Bytes(), &errPayload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if errPayload.Error.Code != string(pkgerrors.CodeDuplicateReview) {
		t.Fatalf("expected %s got %s", pkgerrors.CodeDuplicateReview, errPayload.Error.Code)
	}
}

func TestCreateReviewHandlerRejectsMissingContent(t *testing.T) {
	_, svc, logg := newReviewsControllerHarness(t)

	req := requestWithParam(http.MethodPost, "/api/v1/order-items/1/reviews", "itemID", "1", strings.NewReader(`{"rating":5}`))
	ctx := middleware.WithAccountID(req.Context(), 7)
	ctx = middleware.WithRole(ctx, string(enums.AccountRoleConsumer))
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	CreateReview(svc, logg).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestListProductReviewsHandler(t *testing.T) {
	db, svc, logg := newReviewsControllerHarness(t)
	item := seedDeliveredReviewItem(t, db, 7, 3)
	review := &models.ProductReview{
		OrderItemID: item.ID,
		ProductID:   3,
		OrderID:     item.OrderID,
		AuthorID:    7,
		AuthorRole:  enums.AccountRoleConsumer,
		Rating:      4,
		Content:     "runs small",
	}
	if err := db.Create(review).Error; err != nil {
		t.Fatalf("seed review: %v", err)
	}

	req := requestWithParam(http.MethodGet, "/api/v1/products/3/reviews", "productID", "3", nil)
	rec := httptest.NewRecorder()
	ListProductReviews(svc, logg).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Data struct {
			Reviews []struct {
				ProductID int64 `json:"productId"`
				Rating    int   `json:"rating"`
			} `json:"reviews"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(payload.Data.Reviews) != 1 || payload.Data.Reviews[0].Rating != 4 {
		t.Fatalf("unexpected list payload %+v", payload.Data)
	}
}

func TestListProductReviewsHandlerRejectsBadID(t *testing.T) {
	_, svc, logg := newReviewsControllerHarness(t)

	req := requestWithParam(http.MethodGet, "/api/v1/products/abc/reviews", "productID", "abc", nil)
	rec := httptest.NewRecorder()
	ListProductReviews(svc, logg).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestListProductReviewsHandlerRejectsBadLimit(t *testing.T) {
	_, svc, logg := newReviewsControllerHarness(t)

	req := requestWithParam(http.MethodGet, "/api/v1/products/3/reviews?limit=-1", "productID", "3", nil)
	rec := httptest.NewRecorder()
	ListProductReviews(svc, logg).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
