package db

import (
	"context"
	"time"

	pkgerrors "github.com/silkmall/silkmall-backend/pkg/errors"
	"gorm.io/gorm"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// RetryPolicy bounds how often a conflicting transaction is replayed.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy matches the marketplace write-path defaults.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Backoff: 25 * time.Millisecond}

// IsRetryableTxError reports whether the transaction can be replayed safely.
func IsRetryableTxError(err error) bool {
	switch pkgerrors.PGCode(err) {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return true
	}
	return false
}

// WithConflictRetry runs fn inside WithTx, replaying it on lock and
// serialization failures. Once attempts are exhausted the caller gets a
// CONFLICT error so the client can retry at its own pace.
func (c *Client) WithConflictRetry(ctx context.Context, policy RetryPolicy, fn func(tx *gorm.DB) error) error {
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultRetryPolicy.MaxAttempts
	}
	backoff := policy.Backoff
	if backoff <= 0 {
		backoff = DefaultRetryPolicy.Backoff
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = c.WithTx(ctx, fn)
		if lastErr == nil || !IsRetryableTxError(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(backoff * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "transaction conflicted, retry later")
}
