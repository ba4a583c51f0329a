package controllers

import (
	"net/http"

	"github.com/silkmall/silkmall-backend/api/responses"
	"github.com/silkmall/silkmall-backend/internal/orders"
	"github.com/silkmall/silkmall-backend/pkg/logger"
)

// AdminListOrders pages every order for the back office.
func AdminListOrders(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
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

		list, err := svc.ListAll(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderListView(list))
	}
}

// AdminShipOrder moves a paid order to shipped.
func AdminShipOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransitionHandler(svc.Ship, logg)
}

// AdminMarkInTransit records the logistics handoff.
func AdminMarkInTransit(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransitionHandler(svc.MarkInTransit, logg)
}

// AdminDeliverOrder marks an order delivered on behalf of logistics.
func AdminDeliverOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransitionHandler(svc.Deliver, logg)
}

// AdminApprovePayout releases escrow to the suppliers.
func AdminApprovePayout(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransitionHandler(svc.ApprovePayout, logg)
}

// AdminRevokeOrder reverses a paid order and refunds the consumer.
func AdminRevokeOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransitionHandler(svc.Revoke, logg)
}
