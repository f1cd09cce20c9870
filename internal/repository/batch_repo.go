// internal/repository/batch_repo.go
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Finatrades/finatradesgold-sub015/internal/domain"
)

// BatchRepository defines the interface for fixed-price gold batch persistence.
type BatchRepository interface {
	// CreateBatch inserts a new batch using the provided DBExecutor.
	CreateBatch(ctx context.Context, q DBExecutor, batch *domain.GoldBatch) error
	// GetBatchByID retrieves a batch by its ID.
	GetBatchByID(ctx context.Context, q DBExecutor, id string) (*domain.GoldBatch, error)
	// ListBatchesByOwner retrieves all batches for an owner, oldest first.
	ListBatchesByOwner(ctx context.Context, q DBExecutor, ownerID string) ([]domain.GoldBatch, error)
	// ListActiveBatches retrieves active batches for an owner, optionally
	// filtered by bucket, ordered created_at ascending then id ascending.
	// The ordering is load-bearing: FIFO consumption walks this sequence.
	ListActiveBatches(ctx context.Context, q DBExecutor, ownerID string, bucket *domain.Bucket) ([]domain.GoldBatch, error)
	// SumActiveRemaining sums remaining grams over active batches of one bucket.
	SumActiveRemaining(ctx context.Context, q DBExecutor, ownerID string, bucket domain.Bucket) (decimal.Decimal, error)
	// ConsumeFromBatch decrements remaining grams. The decrement is guarded in
	// SQL; a batch drained to zero flips to CONSUMED in the same statement.
	ConsumeFromBatch(ctx context.Context, q DBExecutor, batchID string, grams decimal.Decimal) (*domain.GoldBatch, error)
	// RetagBucket moves an active batch to a different balance bucket.
	RetagBucket(ctx context.Context, q DBExecutor, batchID string, bucket domain.Bucket) (*domain.GoldBatch, error)
}
