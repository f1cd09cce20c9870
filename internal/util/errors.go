// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
var (
	ErrNotFound                 = errors.New("resource not found")
	ErrBatchNotFound            = errors.New("batch not found")
	ErrInvalidInput             = errors.New("invalid input provided")
	ErrInvalidQuantity          = errors.New("invalid gold quantity")
	ErrInvalidPrice             = errors.New("invalid price")
	ErrInsufficientFunds        = errors.New("insufficient funds")
	ErrInsufficientBatchBalance = errors.New("insufficient batch balance")
	ErrBatchNotActive           = errors.New("batch is not active")
	ErrSameWalletTransfer       = errors.New("cannot transfer to the same wallet")
	ErrConcurrencyConflict      = errors.New("concurrent modification conflict")
	ErrStorageUnavailable       = errors.New("storage unavailable")
)

// IsError reports whether err matches the target sentinel anywhere in its chain.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
