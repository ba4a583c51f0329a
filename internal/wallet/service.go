package wallet

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/silkmall/silkmall-backend/pkg/config"
	"github.com/silkmall/silkmall-backend/pkg/db/models"
	"github.com/silkmall/silkmall-backend/pkg/enums"
	pkgerrors "github.com/silkmall/silkmall-backend/pkg/errors"
	"github.com/silkmall/silkmall-backend/pkg/metrics"
	"github.com/silkmall/silkmall-backend/pkg/outbox"
	"github.com/silkmall/silkmall-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type redeemStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	RedeemCodeKey(codeHash string) string
}

// Balance is the wallet view returned to consumers.
type Balance struct {
	AccountID int64
	Amount    decimal.Decimal
	Entries   []models.WalletEntry
}

// Service covers wallet reads and top-up code redemption.
type Service struct {
	repo    *Repository
	ledger  *Ledger
	tx      txRunner
	outbox  outboxPublisher
	store   redeemStore
	metrics *metrics.MarketplaceMetrics
	cfg     config.WalletConfig
}

// NewService builds a wallet service with the required dependencies.
func NewService(repo *Repository, ledger *Ledger, tx txRunner, ob outboxPublisher, store redeemStore, mm *metrics.MarketplaceMetrics, cfg config.WalletConfig) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("wallet ledger required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if store == nil {
		return nil, fmt.Errorf("redeem store required")
	}
	return &Service{repo: repo, ledger: ledger, tx: tx, outbox: ob, store: store, metrics: mm, cfg: cfg}, nil
}

// Balance returns the current balance plus recent ledger entries.
func (s *Service) Balance(ctx context.Context, accountID int64) (*Balance, error) {
	account, err := s.repo.FindAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	entries, err := s.repo.ListEntries(ctx, accountID, 50)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallet entries")
	}
	return &Balance{AccountID: accountID, Amount: account.WalletBalance, Entries: entries}, nil
}

// Redeem credits a fixed top-up amount for a valid, unspent code. Codes are
// matched by md5 digest against configuration and burned via redis SETNX so a
// code can only ever be spent once.
func (s *Service) Redeem(ctx context.Context, accountID int64, role enums.AccountRole, code string) (decimal.Decimal, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "redeem code required")
	}

	scope := fmt.Sprintf("wallet_redeem:%d", accountID)
	allowed, _, err := s.store.FixedWindowAllow(ctx, scope, int64(s.cfg.RedeemPerWindow), s.cfg.RedeemWindow)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redeem rate limit")
	}
	if !allowed {
		s.metrics.IncWalletRedeem("rate_limited")
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeRateLimit, "too many redeem attempts")
	}

	digest := hashCode(code)
	if !s.knownCode(digest) {
		s.metrics.IncWalletRedeem("invalid")
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid redeem code")
	}

	key := s.store.RedeemCodeKey(digest)
	fresh, err := s.store.SetNX(ctx, key, accountID, 0)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark redeem code")
	}
	if !fresh {
		s.metrics.IncWalletRedeem("reused")
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeConflict, "code already redeemed")
	}

	amount := s.cfg.RedeemAmount
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.ledger.Credit(ctx, tx, accountID, nil, enums.WalletEntryKindRedeem, amount); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWalletRedeemed,
			AggregateType: enums.AggregateWallet,
			AggregateID:   accountID,
			Version:       1,
			Actor:         &outbox.ActorRef{AccountID: accountID, Role: role},
			Data: payloads.WalletRedeemedEvent{
				AccountID: accountID,
				Amount:    amount,
				CodeHash:  digest,
			},
		})
	})
	if err != nil {
		// give the code back if the credit never landed
		_ = s.store.Del(ctx, key)
		s.metrics.IncWalletRedeem("failed")
		return decimal.Zero, err
	}
	s.metrics.IncWalletRedeem("success")
	return amount, nil
}

func (s *Service) knownCode(digest string) bool {
	for _, known := range s.cfg.RedeemCodeHashes {
		if strings.EqualFold(known, digest) {
			return true
		}
	}
	return false
}

func hashCode(code string) string {
	sum := md5.Sum([]byte(code))
	return hex.EncodeToString(sum[:])
}
