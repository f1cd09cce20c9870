// internal/repository/postgres/ledger_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/Finatrades/finatradesgold-sub015/internal/domain"
	"github.com/Finatrades/finatradesgold-sub015/internal/repository"
	"github.com/Finatrades/finatradesgold-sub015/internal/util"
)

// LiveLedgerRepository implements repository.LiveLedgerRepository for PostgreSQL.
type LiveLedgerRepository struct{}

// NewLiveLedgerRepository creates a new LiveLedgerRepository.
func NewLiveLedgerRepository(db *sqlx.DB) repository.LiveLedgerRepository {
	return &LiveLedgerRepository{}
}

// GetBalances returns all bucket balances of the live pool for a user.
func (r *LiveLedgerRepository) GetBalances(ctx context.Context, q repository.DBExecutor, userID string) (map[domain.Bucket]decimal.Decimal, error) {
	rows := []domain.LiveBalance{}
	query := `SELECT user_id, bucket, grams, updated_at FROM live_wallet_balances WHERE user_id = $1`
	if err := q.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, wrapDBError(fmt.Sprintf("failed to get live balances for user %s", userID), err)
	}
	balances := make(map[domain.Bucket]decimal.Decimal, len(rows))
	for _, row := range rows {
		balances[row.Bucket] = row.Grams
	}
	return balances, nil
}

// GetBalance returns one bucket's live-pool balance, zero when no row exists.
func (r *LiveLedgerRepository) GetBalance(ctx context.Context, q repository.DBExecutor, userID string, bucket domain.Bucket) (decimal.Decimal, error) {
	var grams decimal.Decimal
	query := `SELECT grams FROM live_wallet_balances WHERE user_id = $1 AND bucket = $2`
	err := q.GetContext(ctx, &grams, query, userID, bucket)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, wrapDBError(fmt.Sprintf("failed to get live balance for user %s", userID), err)
	}
	return grams, nil
}

// Credit adds grams to a live-pool bucket, creating the row on first use.
func (r *LiveLedgerRepository) Credit(ctx context.Context, q repository.DBExecutor, userID string, bucket domain.Bucket, grams decimal.Decimal) error {
	query := `INSERT INTO live_wallet_balances (user_id, bucket, grams, updated_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (user_id, bucket)
	          DO UPDATE SET grams = live_wallet_balances.grams + EXCLUDED.grams, updated_at = EXCLUDED.updated_at`
	if _, err := q.ExecContext(ctx, query, userID, bucket, grams, time.Now().UTC()); err != nil {
		return wrapDBError(fmt.Sprintf("failed to credit live balance for user %s", userID), err)
	}
	return nil
}

// Debit removes grams from a live-pool bucket. The shortfall guard is part of
// the UPDATE: a debit the bucket cannot cover updates no rows and returns
// util.ErrInsufficientFunds, leaving the ledger untouched.
func (r *LiveLedgerRepository) Debit(ctx context.Context, q repository.DBExecutor, userID string, bucket domain.Bucket, grams decimal.Decimal) error {
	query := `UPDATE live_wallet_balances
	          SET grams = grams - $1, updated_at = $2
	          WHERE user_id = $3 AND bucket = $4 AND grams >= $1`
	result, err := q.ExecContext(ctx, query, grams, time.Now().UTC(), userID, bucket)
	if err != nil {
		return wrapDBError(fmt.Sprintf("failed to debit live balance for user %s", userID), err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected debiting live balance for user %s: %w", userID, err)
	}
	if rowsAffected == 0 {
		return util.ErrInsufficientFunds
	}
	return nil
}
