package controllers

import (
	"net/http"

	"github.com/silkmall/silkmall-backend/api/middleware"
	"github.com/silkmall/silkmall-backend/api/responses"
	"github.com/silkmall/silkmall-backend/api/validators"
	"github.com/silkmall/silkmall-backend/internal/reviews"
	"github.com/silkmall/silkmall-backend/pkg/enums"
	"github.com/silkmall/silkmall-backend/pkg/logger"
)

type createReviewRequest struct {
	Rating  int    `json:"rating" validate:"required"`
	Content string `json:"content" validate:"required,max=2000"`
}

// CreateReview writes one review for an order item the caller received.
func CreateReview(svc *reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := parseIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createReviewRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		review, err := svc.Create(r.Context(), reviews.CreateInput{
			OrderItemID: itemID,
			AuthorID:    middleware.AccountIDFromContext(r.Context()),
			AuthorRole:  enums.AccountRole(middleware.RoleFromContext(r.Context())),
			Rating:      req.Rating,
			Content:     req.Content,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toReviewView(review))
	}
}

// ListProductReviews pages the public reviews for a product.
func ListProductReviews(svc *reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parseIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByProduct(r.Context(), productID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toReviewListView(list))
	}
}
