// internal/repository/postgres/batch_pg.go
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

const batchColumns = `id, owner_id, original_grams, remaining_grams, locked_price_usd_per_gram,
       status, balance_bucket, source_transaction_id, source_type, created_at, updated_at`

// BatchRepository implements repository.BatchRepository for PostgreSQL.
type BatchRepository struct {
	// Methods receive a DBExecutor directly so they run either on the pool or
	// inside a transfer transaction.
}

// NewBatchRepository creates a new BatchRepository.
func NewBatchRepository(db *sqlx.DB) repository.BatchRepository {
	return &BatchRepository{}
}

// CreateBatch inserts a new batch record using the provided DBExecutor.
func (r *BatchRepository) CreateBatch(ctx context.Context, q repository.DBExecutor, batch *domain.GoldBatch) error {
	query := `INSERT INTO gold_batches (id, owner_id, original_grams, remaining_grams, locked_price_usd_per_gram,
	              status, balance_bucket, source_transaction_id, source_type, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := q.ExecContext(ctx, query,
		batch.ID,
		batch.OwnerID,
		batch.OriginalGrams,
		batch.RemainingGrams,
		batch.LockedPriceUsdPerGram,
		batch.Status,
		batch.Bucket,
		batch.SourceTransactionID,
		batch.SourceType,
		batch.CreatedAt,
		batch.UpdatedAt,
	)
	if err != nil {
		return wrapDBError("failed to create batch", err)
	}
	return nil
}

// GetBatchByID retrieves a batch by its ID using the provided DBExecutor.
func (r *BatchRepository) GetBatchByID(ctx context.Context, q repository.DBExecutor, id string) (*domain.GoldBatch, error) {
	var batch domain.GoldBatch
	query := `SELECT ` + batchColumns + ` FROM gold_batches WHERE id = $1`
	err := q.GetContext(ctx, &batch, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrBatchNotFound
		}
		return nil, wrapDBError(fmt.Sprintf("failed to get batch %s", id), err)
	}
	return &batch, nil
}

// ListBatchesByOwner retrieves all batches for an owner, oldest first.
func (r *BatchRepository) ListBatchesByOwner(ctx context.Context, q repository.DBExecutor, ownerID string) ([]domain.GoldBatch, error) {
	batches := []domain.GoldBatch{}
	query := `SELECT ` + batchColumns + ` FROM gold_batches WHERE owner_id = $1 ORDER BY created_at ASC, id ASC`
	if err := q.SelectContext(ctx, &batches, query, ownerID); err != nil {
		return nil, wrapDBError(fmt.Sprintf("failed to list batches for owner %s", ownerID), err)
	}
	return batches, nil
}

// ListActiveBatches retrieves active batches for an owner, optionally filtered
// by bucket. Ordered created_at ascending, id ascending: FIFO consumption
// depends on this ordering being deterministic.
func (r *BatchRepository) ListActiveBatches(ctx context.Context, q repository.DBExecutor, ownerID string, bucket *domain.Bucket) ([]domain.GoldBatch, error) {
	batches := []domain.GoldBatch{}
	if bucket != nil {
		query := `SELECT ` + batchColumns + `
		          FROM gold_batches
		          WHERE owner_id = $1 AND status = $2 AND balance_bucket = $3
		          ORDER BY created_at ASC, id ASC`
		if err := q.SelectContext(ctx, &batches, query, ownerID, domain.BatchStatusActive, *bucket); err != nil {
			return nil, wrapDBError(fmt.Sprintf("failed to list active batches for owner %s", ownerID), err)
		}
		return batches, nil
	}
	query := `SELECT ` + batchColumns + `
	          FROM gold_batches
	          WHERE owner_id = $1 AND status = $2
	          ORDER BY created_at ASC, id ASC`
	if err := q.SelectContext(ctx, &batches, query, ownerID, domain.BatchStatusActive); err != nil {
		return nil, wrapDBError(fmt.Sprintf("failed to list active batches for owner %s", ownerID), err)
	}
	return batches, nil
}

// SumActiveRemaining sums remaining grams over active batches of one bucket.
func (r *BatchRepository) SumActiveRemaining(ctx context.Context, q repository.DBExecutor, ownerID string, bucket domain.Bucket) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(remaining_grams), 0)
	          FROM gold_batches
	          WHERE owner_id = $1 AND status = $2 AND balance_bucket = $3`
	err := q.GetContext(ctx, &total, query, ownerID, domain.BatchStatusActive, bucket)
	if err != nil {
		return decimal.Zero, wrapDBError(fmt.Sprintf("failed to sum active batches for owner %s", ownerID), err)
	}
	return total, nil
}

// ConsumeFromBatch decrements remaining grams of an active batch. The guard
// lives in the UPDATE's WHERE clause so remaining grams can never go negative;
// a batch drained to exactly zero flips to CONSUMED in the same statement.
func (r *BatchRepository) ConsumeFromBatch(ctx context.Context, q repository.DBExecutor, batchID string, grams decimal.Decimal) (*domain.GoldBatch, error) {
	query := `UPDATE gold_batches
	          SET remaining_grams = remaining_grams - $1,
	              status = CASE WHEN remaining_grams - $1 = 0 THEN $2 ELSE status END,
	              updated_at = $3
	          WHERE id = $4 AND status = $5 AND remaining_grams >= $1`
	result, err := q.ExecContext(ctx, query, grams, domain.BatchStatusConsumed, time.Now().UTC(), batchID, domain.BatchStatusActive)
	if err != nil {
		return nil, wrapDBError(fmt.Sprintf("failed to consume from batch %s", batchID), err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected consuming batch %s: %w", batchID, err)
	}
	if rowsAffected == 0 {
		return nil, r.explainRejectedUpdate(ctx, q, batchID, util.ErrInsufficientBatchBalance)
	}
	return r.GetBatchByID(ctx, q, batchID)
}

// RetagBucket moves an active batch into a different balance bucket. Used by
// the BNSL and trade engines; transfers never call it.
func (r *BatchRepository) RetagBucket(ctx context.Context, q repository.DBExecutor, batchID string, bucket domain.Bucket) (*domain.GoldBatch, error) {
	query := `UPDATE gold_batches
	          SET balance_bucket = $1, updated_at = $2
	          WHERE id = $3 AND status = $4`
	result, err := q.ExecContext(ctx, query, bucket, time.Now().UTC(), batchID, domain.BatchStatusActive)
	if err != nil {
		return nil, wrapDBError(fmt.Sprintf("failed to retag batch %s", batchID), err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected retagging batch %s: %w", batchID, err)
	}
	if rowsAffected == 0 {
		return nil, r.explainRejectedUpdate(ctx, q, batchID, util.ErrBatchNotActive)
	}
	return r.GetBatchByID(ctx, q, batchID)
}

// explainRejectedUpdate distinguishes why a guarded UPDATE touched no rows:
// the batch is missing, terminal, or (for consumption) short on grams.
func (r *BatchRepository) explainRejectedUpdate(ctx context.Context, q repository.DBExecutor, batchID string, activeButRejected error) error {
	batch, err := r.GetBatchByID(ctx, q, batchID)
	if err != nil {
		return err
	}
	if batch.Status != domain.BatchStatusActive {
		return util.ErrBatchNotActive
	}
	return activeButRejected
}
