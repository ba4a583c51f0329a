package db

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/silkmall/silkmall-backend/pkg/errors"
)

func TestIsRetryableTxError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code string
		want bool
	}{
		{"40001", true},
		{"40P01", true},
		{"55P03", true},
		{"23505", false},
		{"", false},
	}
	for _, tc := range cases {
		var err error
		if tc.code != "" {
			err = &pgconn.PgError{Code: tc.code}
		} else {
			err = errors.New("plain")
		}
		if got := IsRetryableTxError(err); got != tc.want {
			t.Fatalf("IsRetryableTxError(%q) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestIsRetryableTxErrorUnwrapsChain(t *testing.T) {
	t.Parallel()

	inner := &pgconn.PgError{Code: "40P01"}
	wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, inner, "update order")
	if !IsRetryableTxError(wrapped) {
		t.Fatal("expected wrapped deadlock to be retryable")
	}
}

func TestIsRetryableTxErrorNil(t *testing.T) {
	t.Parallel()

	if IsRetryableTxError(nil) {
		t.Fatal("nil error must not be retryable")
	}
}
