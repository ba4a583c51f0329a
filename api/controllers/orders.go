package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/silkmall/silkmall-backend/api/middleware"
	"github.com/silkmall/silkmall-backend/api/responses"
	"github.com/silkmall/silkmall-backend/api/validators"
	"github.com/silkmall/silkmall-backend/internal/orders"
	"github.com/silkmall/silkmall-backend/pkg/enums"
	pkgerrors "github.com/silkmall/silkmall-backend/pkg/errors"
	"github.com/silkmall/silkmall-backend/pkg/logger"
)

type createOrderRequest struct {
	ContactName     string                   `json:"contactName" validate:"required,max=120"`
	ContactPhone    string                   `json:"contactPhone" validate:"required,max=40"`
	ShippingAddress string                   `json:"shippingAddress" validate:"required,max=500"`
	Items           []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type createOrderItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Qty       int   `json:"qty" validate:"required,gt=0"`
}

type payOrderRequest struct {
	PaymentMethod string `json:"paymentMethod" validate:"required,max=40"`
}

type updateContactRequest struct {
	ContactName     string `json:"contactName" validate:"required,max=120"`
	ContactPhone    string `json:"contactPhone" validate:"required,max=40"`
	ShippingAddress string `json:"shippingAddress" validate:"required,max=500"`
}

func actorFromRequest(r *http.Request) orders.Actor {
	return orders.Actor{
		AccountID: middleware.AccountIDFromContext(r.Context()),
		Role:      enums.AccountRole(middleware.RoleFromContext(r.Context())),
	}
}

func orderFiltersFromQuery(r *http.Request) (orders.ListFilters, error) {
	filters := orders.ListFilters{
		OrderNumber:      strings.TrimSpace(r.URL.Query().Get("orderNumber")),
		ConsumerLookupID: strings.TrimSpace(r.URL.Query().Get("lookupId")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	return filters, nil
}

// CreateOrder opens a pending_payment order from the posted cart lines.
func CreateOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]orders.CreateOrderItemInput, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, orders.CreateOrderItemInput{ProductID: item.ProductID, Qty: item.Qty})
		}
		order, err := svc.Create(r.Context(), orders.CreateOrderInput{
			ConsumerID: middleware.AccountIDFromContext(r.Context()),
			Contact: orders.ContactInfo{
				Name:    req.ContactName,
				Phone:   req.ContactPhone,
				Address: req.ShippingAddress,
			},
			Items: items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toOrderView(order))
	}
}

// ListOrders pages the caller's own orders.
func ListOrders(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := orderFiltersFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForConsumer(r.Context(), middleware.AccountIDFromContext(r.Context()), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderListView(list))
	}
}

// GetOrder loads one order with role-scoped visibility.
func GetOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), orderID, actorFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderView(order))
	}
}

// CancelOrder voids an unpaid order.
func CancelOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransitionHandler(svc.Cancel, logg)
}

// PayOrder settles an order from the caller's wallet, recording the chosen
// payment method on the order.
func PayOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req payOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Pay(r.Context(), orderID, actorFromRequest(r), req.PaymentMethod); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// ConfirmReceipt marks the caller's order delivered.
func ConfirmReceipt(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransitionHandler(svc.ConfirmReceipt, logg)
}

// UpdateOrderContact edits the delivery contact before shipment.
func UpdateOrderContact(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateContactRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.UpdateContact(r.Context(), orders.UpdateContactInput{
			OrderID:    orderID,
			ConsumerID: middleware.AccountIDFromContext(r.Context()),
			Contact: orders.ContactInfo{
				Name:    req.ContactName,
				Phone:   req.ContactPhone,
				Address: req.ShippingAddress,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

func orderTransitionHandler(transition func(ctx context.Context, orderID int64, actor orders.Actor) error, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := transition(r.Context(), orderID, actorFromRequest(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
