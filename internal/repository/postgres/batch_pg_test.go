// internal/repository/postgres/batch_pg_test.go
package postgres

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Finatrades/finatradesgold-sub015/internal/domain"
	"github.com/Finatrades/finatradesgold-sub015/internal/util"
)

var batchTestColumns = []string{
	"id", "owner_id", "original_grams", "remaining_grams", "locked_price_usd_per_gram",
	"status", "balance_bucket", "source_transaction_id", "source_type", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func batchRow(id, ownerID, original, remaining, price string, status domain.BatchStatus, bucket domain.Bucket, createdAt time.Time) []driver.Value {
	return []driver.Value{id, ownerID, original, remaining, price, string(status), string(bucket), nil, "PURCHASE", createdAt, createdAt}
}

func TestBatchRepository_GetBatchByID(t *testing.T) {
	ctx := context.Background()
	repo := NewBatchRepository(nil)
	createdAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("returns the batch", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT (.+) FROM gold_batches WHERE id = \\$1").
			WithArgs("batch-1").
			WillReturnRows(sqlmock.NewRows(batchTestColumns).
				AddRow(batchRow("batch-1", "user1", "5", "3.5", "79.5", domain.BatchStatusActive, domain.BucketAvailable, createdAt)...))

		batch, err := repo.GetBatchByID(ctx, db, "batch-1")

		require.NoError(t, err)
		assert.Equal(t, "batch-1", batch.ID)
		assert.True(t, decimal.RequireFromString("3.5").Equal(batch.RemainingGrams))
		assert.Equal(t, domain.BatchStatusActive, batch.Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing batch maps to ErrBatchNotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT (.+) FROM gold_batches WHERE id = \\$1").
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows(batchTestColumns))

		_, err := repo.GetBatchByID(ctx, db, "nope")

		assert.ErrorIs(t, err, util.ErrBatchNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBatchRepository_ListActiveBatches(t *testing.T) {
	ctx := context.Background()
	repo := NewBatchRepository(nil)
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("filters by bucket and preserves FIFO order", func(t *testing.T) {
		db, mock := newMockDB(t)
		bucket := domain.BucketAvailable
		mock.ExpectQuery("SELECT (.+) FROM gold_batches\\s+WHERE owner_id = \\$1 AND status = \\$2 AND balance_bucket = \\$3").
			WithArgs("user1", "ACTIVE", "AVAILABLE").
			WillReturnRows(sqlmock.NewRows(batchTestColumns).
				AddRow(batchRow("batch-1", "user1", "5", "5", "70", domain.BatchStatusActive, bucket, t1)...).
				AddRow(batchRow("batch-2", "user1", "5", "5", "90", domain.BatchStatusActive, bucket, t1.Add(time.Hour))...))

		batches, err := repo.ListActiveBatches(ctx, db, "user1", &bucket)

		require.NoError(t, err)
		require.Len(t, batches, 2)
		assert.Equal(t, "batch-1", batches[0].ID)
		assert.Equal(t, "batch-2", batches[1].ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("without bucket returns every active batch", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT (.+) FROM gold_batches\\s+WHERE owner_id = \\$1 AND status = \\$2\\s+ORDER BY").
			WithArgs("user1", "ACTIVE").
			WillReturnRows(sqlmock.NewRows(batchTestColumns).
				AddRow(batchRow("batch-1", "user1", "5", "5", "70", domain.BatchStatusActive, domain.BucketPending, t1)...))

		batches, err := repo.ListActiveBatches(ctx, db, "user1", nil)

		require.NoError(t, err)
		require.Len(t, batches, 1)
		assert.Equal(t, domain.BucketPending, batches[0].Bucket)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBatchRepository_SumActiveRemaining(t *testing.T) {
	ctx := context.Background()
	repo := NewBatchRepository(nil)
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(remaining_grams\\), 0\\)").
		WithArgs("user1", "ACTIVE", "AVAILABLE").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("8.25"))

	total, err := repo.SumActiveRemaining(ctx, db, "user1", domain.BucketAvailable)

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("8.25").Equal(total))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepository_ConsumeFromBatch(t *testing.T) {
	ctx := context.Background()
	repo := NewBatchRepository(nil)
	createdAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("partial consume decrements and re-reads the batch", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("UPDATE gold_batches").
			WithArgs(sqlmock.AnyArg(), "CONSUMED", sqlmock.AnyArg(), "batch-1", "ACTIVE").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT (.+) FROM gold_batches WHERE id = \\$1").
			WithArgs("batch-1").
			WillReturnRows(sqlmock.NewRows(batchTestColumns).
				AddRow(batchRow("batch-1", "user1", "5", "3", "70", domain.BatchStatusActive, domain.BucketAvailable, createdAt)...))

		batch, err := repo.ConsumeFromBatch(ctx, db, "batch-1", decimal.NewFromInt(2))

		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(3).Equal(batch.RemainingGrams))
		assert.Equal(t, domain.BatchStatusActive, batch.Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("guarded update rejects oversized consume", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("UPDATE gold_batches").
			WithArgs(sqlmock.AnyArg(), "CONSUMED", sqlmock.AnyArg(), "batch-1", "ACTIVE").
			WillReturnResult(sqlmock.NewResult(0, 0))
		// The follow-up read explains the rejection: batch is active, so the
		// shortfall is in its remaining grams.
		mock.ExpectQuery("SELECT (.+) FROM gold_batches WHERE id = \\$1").
			WithArgs("batch-1").
			WillReturnRows(sqlmock.NewRows(batchTestColumns).
				AddRow(batchRow("batch-1", "user1", "5", "3", "70", domain.BatchStatusActive, domain.BucketAvailable, createdAt)...))

		_, err := repo.ConsumeFromBatch(ctx, db, "batch-1", decimal.NewFromInt(10))

		assert.ErrorIs(t, err, util.ErrInsufficientBatchBalance)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("terminal batch maps to ErrBatchNotActive", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("UPDATE gold_batches").
			WithArgs(sqlmock.AnyArg(), "CONSUMED", sqlmock.AnyArg(), "batch-1", "ACTIVE").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT (.+) FROM gold_batches WHERE id = \\$1").
			WithArgs("batch-1").
			WillReturnRows(sqlmock.NewRows(batchTestColumns).
				AddRow(batchRow("batch-1", "user1", "5", "0", "70", domain.BatchStatusConsumed, domain.BucketAvailable, createdAt)...))

		_, err := repo.ConsumeFromBatch(ctx, db, "batch-1", decimal.NewFromInt(1))

		assert.ErrorIs(t, err, util.ErrBatchNotActive)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing batch maps to ErrBatchNotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("UPDATE gold_batches").
			WithArgs(sqlmock.AnyArg(), "CONSUMED", sqlmock.AnyArg(), "nope", "ACTIVE").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT (.+) FROM gold_batches WHERE id = \\$1").
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows(batchTestColumns))

		_, err := repo.ConsumeFromBatch(ctx, db, "nope", decimal.NewFromInt(1))

		assert.ErrorIs(t, err, util.ErrBatchNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBatchRepository_RetagBucket(t *testing.T) {
	ctx := context.Background()
	repo := NewBatchRepository(nil)
	createdAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("moves an active batch", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("UPDATE gold_batches\\s+SET balance_bucket = \\$1").
			WithArgs("LOCKED_BNSL", sqlmock.AnyArg(), "batch-1", "ACTIVE").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT (.+) FROM gold_batches WHERE id = \\$1").
			WithArgs("batch-1").
			WillReturnRows(sqlmock.NewRows(batchTestColumns).
				AddRow(batchRow("batch-1", "user1", "5", "5", "70", domain.BatchStatusActive, domain.BucketLockedBNSL, createdAt)...))

		batch, err := repo.RetagBucket(ctx, db, "batch-1", domain.BucketLockedBNSL)

		require.NoError(t, err)
		assert.Equal(t, domain.BucketLockedBNSL, batch.Bucket)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("terminal batch maps to ErrBatchNotActive", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("UPDATE gold_batches\\s+SET balance_bucket = \\$1").
			WithArgs("LOCKED_BNSL", sqlmock.AnyArg(), "batch-1", "ACTIVE").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT (.+) FROM gold_batches WHERE id = \\$1").
			WithArgs("batch-1").
			WillReturnRows(sqlmock.NewRows(batchTestColumns).
				AddRow(batchRow("batch-1", "user1", "5", "0", "70", domain.BatchStatusTransferred, domain.BucketAvailable, createdAt)...))

		_, err := repo.RetagBucket(ctx, db, "batch-1", domain.BucketLockedBNSL)

		assert.ErrorIs(t, err, util.ErrBatchNotActive)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBatchRepository_CreateBatch(t *testing.T) {
	ctx := context.Background()
	repo := NewBatchRepository(nil)
	db, mock := newMockDB(t)

	batch := domain.NewGoldBatch("user1", decimal.NewFromInt(5), decimal.RequireFromString("79.5"), domain.BucketAvailable, nil, domain.SourceTypePurchase)

	mock.ExpectExec("INSERT INTO gold_batches").
		WithArgs(batch.ID, "user1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"ACTIVE", "AVAILABLE", nil, "PURCHASE", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateBatch(ctx, db, batch))
	require.NoError(t, mock.ExpectationsWereMet())
}
