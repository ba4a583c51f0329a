package enums

import "fmt"

// WalletEntryDirection marks which way money moved for the account.
type WalletEntryDirection string

const (
	WalletEntryDebit  WalletEntryDirection = "debit"
	WalletEntryCredit WalletEntryDirection = "credit"
)

// IsValid reports whether the value is a known WalletEntryDirection.
func (w WalletEntryDirection) IsValid() bool {
	return w == WalletEntryDebit || w == WalletEntryCredit
}

// WalletEntryKind explains why a balance changed.
type WalletEntryKind string

const (
	WalletEntryKindPayment    WalletEntryKind = "payment"
	WalletEntryKindEscrow     WalletEntryKind = "escrow"
	WalletEntryKindPayout     WalletEntryKind = "payout"
	WalletEntryKindCommission WalletEntryKind = "commission"
	WalletEntryKindRefund     WalletEntryKind = "refund"
	WalletEntryKindRevocation WalletEntryKind = "revocation"
	WalletEntryKindRedeem     WalletEntryKind = "redeem"
)

var validWalletEntryKinds = []WalletEntryKind{
	WalletEntryKindPayment,
	WalletEntryKindEscrow,
	WalletEntryKindPayout,
	WalletEntryKindCommission,
	WalletEntryKindRefund,
	WalletEntryKindRevocation,
	WalletEntryKindRedeem,
}

// String implements fmt.Stringer.
func (w WalletEntryKind) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WalletEntryKind.
func (w WalletEntryKind) IsValid() bool {
	for _, candidate := range validWalletEntryKinds {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWalletEntryKind converts raw input into a WalletEntryKind.
func ParseWalletEntryKind(value string) (WalletEntryKind, error) {
	for _, candidate := range validWalletEntryKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet entry kind %q", value)
}
