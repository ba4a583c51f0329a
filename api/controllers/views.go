package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/silkmall/silkmall-backend/api/validators"
	"github.com/silkmall/silkmall-backend/internal/orders"
	"github.com/silkmall/silkmall-backend/internal/returns"
	"github.com/silkmall/silkmall-backend/internal/reviews"
	"github.com/silkmall/silkmall-backend/pkg/db/models"
	"github.com/silkmall/silkmall-backend/pkg/enums"
	pkgerrors "github.com/silkmall/silkmall-backend/pkg/errors"
	"github.com/silkmall/silkmall-backend/pkg/pagination"
)

type orderItemView struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"productId"`
	SupplierID  int64           `json:"supplierId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

type orderView struct {
	ID               int64              `json:"id"`
	OrderNumber      string             `json:"orderNumber"`
	ConsumerLookupID string             `json:"consumerLookupId,omitempty"`
	ConsumerID       int64              `json:"consumerId"`
	Status           enums.OrderStatus  `json:"status"`
	PayoutStatus     enums.PayoutStatus `json:"payoutStatus"`
	TotalAmount      decimal.Decimal    `json:"totalAmount"`
	CommissionAmount decimal.Decimal    `json:"commissionAmount"`
	PaymentMethod    string             `json:"paymentMethod,omitempty"`
	ContactName      string             `json:"contactName"`
	ContactPhone     string             `json:"contactPhone"`
	ShippingAddress  string             `json:"shippingAddress"`
	Items            []orderItemView    `json:"items"`
	PaidAt           *time.Time         `json:"paidAt,omitempty"`
	ShippedAt        *time.Time         `json:"shippedAt,omitempty"`
	InTransitAt      *time.Time         `json:"inTransitAt,omitempty"`
	DeliveredAt      *time.Time         `json:"deliveredAt,omitempty"`
	PayoutApprovedAt *time.Time         `json:"payoutApprovedAt,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
}

type orderListView struct {
	Orders     []orderView `json:"orders"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

func toOrderView(order *models.Order) orderView {
	items := make([]orderItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemView{
			ID:          item.ID,
			ProductID:   item.ProductID,
			SupplierID:  item.SupplierID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal,
		})
	}
	return orderView{
		ID:               order.ID,
		OrderNumber:      order.OrderNumber,
		ConsumerLookupID: order.ConsumerLookupID,
		ConsumerID:       order.ConsumerID,
		Status:           order.Status,
		PayoutStatus:     order.PayoutStatus,
		TotalAmount:      order.TotalAmount,
		CommissionAmount: order.CommissionAmount,
		PaymentMethod:    order.PaymentMethod,
		ContactName:      order.ContactName,
		ContactPhone:     order.ContactPhone,
		ShippingAddress:  order.ShippingAddress,
		Items:            items,
		PaidAt:           order.PaidAt,
		ShippedAt:        order.ShippedAt,
		InTransitAt:      order.InTransitAt,
		DeliveredAt:      order.DeliveredAt,
		PayoutApprovedAt: order.PayoutApprovedAt,
		CreatedAt:        order.CreatedAt,
	}
}

func toOrderListView(list *orders.OrderList) orderListView {
	view := orderListView{Orders: make([]orderView, 0, len(list.Orders)), NextCursor: list.NextCursor}
	for i := range list.Orders {
		view.Orders = append(view.Orders, toOrderView(&list.Orders[i]))
	}
	return view
}

type returnRequestView struct {
	ID               int64              `json:"id"`
	OrderItemID      int64              `json:"orderItemId"`
	OrderID          int64              `json:"orderId"`
	ConsumerID       int64              `json:"consumerId"`
	SupplierID       int64              `json:"supplierId"`
	Reason           string             `json:"reason"`
	Status           enums.ReturnStatus `json:"status"`
	Resolution       string             `json:"resolution,omitempty"`
	RefundAmount     decimal.Decimal    `json:"refundAmount"`
	CommissionAmount decimal.Decimal    `json:"commissionAmount"`
	SupplierAmount   decimal.Decimal    `json:"supplierAmount"`
	ProcessedAt      *time.Time         `json:"processedAt,omitempty"`
	CompletedAt      *time.Time         `json:"completedAt,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
}

type returnListView struct {
	Requests   []returnRequestView `json:"requests"`
	NextCursor string              `json:"nextCursor,omitempty"`
}

func toReturnView(request *models.ReturnRequest) returnRequestView {
	return returnRequestView{
		ID:               request.ID,
		OrderItemID:      request.OrderItemID,
		OrderID:          request.OrderID,
		ConsumerID:       request.ConsumerID,
		SupplierID:       request.SupplierID,
		Reason:           request.Reason,
		Status:           request.Status,
		Resolution:       request.Resolution,
		RefundAmount:     request.RefundAmount,
		CommissionAmount: request.CommissionAmount,
		SupplierAmount:   request.SupplierAmount,
		ProcessedAt:      request.ProcessedAt,
		CompletedAt:      request.CompletedAt,
		CreatedAt:        request.CreatedAt,
	}
}

func toReturnListView(list *returns.RequestList) returnListView {
	view := returnListView{Requests: make([]returnRequestView, 0, len(list.Requests)), NextCursor: list.NextCursor}
	for i := range list.Requests {
		view.Requests = append(view.Requests, toReturnView(&list.Requests[i]))
	}
	return view
}

type reviewView struct {
	ID          int64             `json:"id"`
	OrderItemID int64             `json:"orderItemId"`
	ProductID   int64             `json:"productId"`
	AuthorRole  enums.AccountRole `json:"authorRole"`
	Rating      int               `json:"rating"`
	Content     string            `json:"content"`
	CreatedAt   time.Time         `json:"createdAt"`
}

type reviewListView struct {
	Reviews    []reviewView `json:"reviews"`
	NextCursor string       `json:"nextCursor,omitempty"`
}

func toReviewView(review *models.ProductReview) reviewView {
	return reviewView{
		ID:          review.ID,
		OrderItemID: review.OrderItemID,
		ProductID:   review.ProductID,
		AuthorRole:  review.AuthorRole,
		Rating:      review.Rating,
		Content:     review.Content,
		CreatedAt:   review.CreatedAt,
	}
}

func toReviewListView(list *reviews.ReviewList) reviewListView {
	view := reviewListView{Reviews: make([]reviewView, 0, len(list.Reviews)), NextCursor: list.NextCursor}
	for i := range list.Reviews {
		view.Reviews = append(view.Reviews, toReviewView(&list.Reviews[i]))
	}
	return view
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a positive integer").WithDetails(map[string]any{"field": name})
	}
	return id, nil
}

func paginationFromQuery(r *http.Request) (pagination.Params, error) {
	params := pagination.Params{Cursor: strings.TrimSpace(r.URL.Query().Get("cursor"))}
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
	if err != nil {
		return params, err
	}
	params.Limit = limit
	return params, nil
}
