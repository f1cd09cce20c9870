// internal/repository/ledger_repo.go
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Finatrades/finatradesgold-sub015/internal/domain"
)

// LiveLedgerRepository defines the interface for the live-pool (MPGW)
// running-balance ledger, keyed by (user, bucket).
type LiveLedgerRepository interface {
	// GetBalances returns all bucket balances for a user. Buckets with no row
	// are simply absent from the map.
	GetBalances(ctx context.Context, q DBExecutor, userID string) (map[domain.Bucket]decimal.Decimal, error)
	// GetBalance returns one bucket's balance, zero when no row exists.
	GetBalance(ctx context.Context, q DBExecutor, userID string, bucket domain.Bucket) (decimal.Decimal, error)
	// Credit adds grams to a bucket, creating the row on first use.
	Credit(ctx context.Context, q DBExecutor, userID string, bucket domain.Bucket, grams decimal.Decimal) error
	// Debit removes grams from a bucket. The shortfall check happens in the
	// UPDATE itself; an uncovered debit returns util.ErrInsufficientFunds.
	Debit(ctx context.Context, q DBExecutor, userID string, bucket domain.Bucket, grams decimal.Decimal) error
}
