package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/silkmall/silkmall-backend/api/middleware"
	"github.com/silkmall/silkmall-backend/api/responses"
	"github.com/silkmall/silkmall-backend/api/validators"
	"github.com/silkmall/silkmall-backend/internal/wallet"
	"github.com/silkmall/silkmall-backend/pkg/db/models"
	"github.com/silkmall/silkmall-backend/pkg/enums"
	"github.com/silkmall/silkmall-backend/pkg/logger"
)

type walletEntryView struct {
	ID        int64                      `json:"id"`
	OrderID   *int64                     `json:"orderId,omitempty"`
	Direction enums.WalletEntryDirection `json:"direction"`
	Kind      enums.WalletEntryKind      `json:"kind"`
	Amount    decimal.Decimal            `json:"amount"`
	CreatedAt time.Time                  `json:"createdAt"`
}

type walletView struct {
	AccountID int64             `json:"accountId"`
	Balance   decimal.Decimal   `json:"balance"`
	Entries   []walletEntryView `json:"entries"`
}

type redeemRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

type redeemResponse struct {
	Credited decimal.Decimal `json:"credited"`
}

func toWalletView(balance *wallet.Balance) walletView {
	entries := make([]walletEntryView, 0, len(balance.Entries))
	for _, entry := range balance.Entries {
		entries = append(entries, toWalletEntryView(entry))
	}
	return walletView{AccountID: balance.AccountID, Balance: balance.Amount, Entries: entries}
}

func toWalletEntryView(entry models.WalletEntry) walletEntryView {
	return walletEntryView{
		ID:        entry.ID,
		OrderID:   entry.OrderID,
		Direction: entry.Direction,
		Kind:      entry.Kind,
		Amount:    entry.Amount,
		CreatedAt: entry.CreatedAt,
	}
}

// GetWallet returns the caller's balance with recent ledger entries.
func GetWallet(svc *wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		balance, err := svc.Balance(r.Context(), middleware.AccountIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toWalletView(balance))
	}
}

// RedeemWalletCode credits the caller's wallet from a one-time top-up code.
func RedeemWalletCode(svc *wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req redeemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		credited, err := svc.Redeem(r.Context(),
			middleware.AccountIDFromContext(r.Context()),
			enums.AccountRole(middleware.RoleFromContext(r.Context())),
			req.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, redeemResponse{Credited: credited})
	}
}
