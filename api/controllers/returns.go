package controllers

import (
	"net/http"

	"github.com/silkmall/silkmall-backend/api/middleware"
	"github.com/silkmall/silkmall-backend/api/responses"
	"github.com/silkmall/silkmall-backend/api/validators"
	"github.com/silkmall/silkmall-backend/internal/returns"
	"github.com/silkmall/silkmall-backend/pkg/enums"
	pkgerrors "github.com/silkmall/silkmall-backend/pkg/errors"
	"github.com/silkmall/silkmall-backend/pkg/logger"
)

type createReturnRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type processReturnRequest struct {
	NewStatus  string `json:"newStatus" validate:"required"`
	Resolution string `json:"resolution" validate:"max=500"`
}

// CreateReturn opens a return request for one of the caller's order items.
func CreateReturn(svc *returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := parseIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createReturnRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Create(r.Context(), returns.CreateInput{
			OrderItemID: itemID,
			ConsumerID:  middleware.AccountIDFromContext(r.Context()),
			Reason:      req.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toReturnView(request))
	}
}

// ListReturns pages the caller's own return requests.
func ListReturns(svc *returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListForConsumer(r.Context(), middleware.AccountIDFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toReturnListView(list))
	}
}

// ProcessReturn applies a supplier or admin decision to a request.
func ProcessReturn(svc *returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, err := parseIDParam(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req processReturnRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseReturnStatus(req.NewStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		processed, err := svc.Process(r.Context(), returns.ProcessInput{
			RequestID:  requestID,
			NewStatus:  status,
			Resolution: req.Resolution,
			ActorID:    middleware.AccountIDFromContext(r.Context()),
			Role:       enums.AccountRole(middleware.RoleFromContext(r.Context())),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toReturnView(processed))
	}
}

// AdminListReturnQueue pages the pending requests awaiting a decision.
func AdminListReturnQueue(svc *returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListQueue(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toReturnListView(list))
	}
}
