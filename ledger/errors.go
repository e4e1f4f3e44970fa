package ledger

import "errors"

var (
	// ErrPermissionDenied rejects privileged commands from non-owner callers.
	ErrPermissionDenied = errors.New("ledger: permission denied")
	// ErrInsufficientBalance rejects debits exceeding the source balance.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	// ErrInsufficientAllowance rejects delegated transfers exceeding the
	// remaining allowance.
	ErrInsufficientAllowance = errors.New("ledger: insufficient allowance")
	// ErrAccountNotBlackListed rejects forced destruction of funds held by a
	// non-blacklisted account.
	ErrAccountNotBlackListed = errors.New("ledger: account not blacklisted")
)

// Code maps a ledger error to its stable taxonomy code. The code travels in
// TransactionFailed events and across the host boundary verbatim.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "PermissionDenied"
	case errors.Is(err, ErrInsufficientBalance):
		return "InsufficientBalance"
	case errors.Is(err, ErrInsufficientAllowance):
		return "InsufficientAllowance"
	case errors.Is(err, ErrAccountNotBlackListed):
		return "AccountNotBlackListed"
	default:
		return "Unknown"
	}
}
