package controllers

import (
	"net/http"

	"github.com/silkmall/silkmall-backend/api/middleware"
	"github.com/silkmall/silkmall-backend/api/responses"
	"github.com/silkmall/silkmall-backend/internal/orders"
	"github.com/silkmall/silkmall-backend/internal/returns"
	"github.com/silkmall/silkmall-backend/pkg/logger"
)

// ListSupplierOrders pages orders containing the supplier's items.
func ListSupplierOrders(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
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

		list, err := svc.ListForSupplier(r.Context(), middleware.AccountIDFromContext(r.Context()), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderListView(list))
	}
}

// SupplierShipOrder ships an order once every line belongs to the caller.
func SupplierShipOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransitionHandler(svc.SupplierShip, logg)
}

// ListSupplierReturns pages return requests targeting the caller's products.
func ListSupplierReturns(svc *returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListForSupplier(r.Context(), middleware.AccountIDFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toReturnListView(list))
	}
}
