// internal/repository/postgres/transfer_pg.go
package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Finatrades/finatradesgold-sub015/internal/domain"
	"github.com/Finatrades/finatradesgold-sub015/internal/repository"
)

// TransferRepository implements repository.TransferRepository for PostgreSQL.
type TransferRepository struct{}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(db *sqlx.DB) repository.TransferRepository {
	return &TransferRepository{}
}

// CreateTransferRecord appends a new transfer record. Records are immutable
// once written; there is no update path.
func (r *TransferRepository) CreateTransferRecord(ctx context.Context, q repository.DBExecutor, record *domain.TransferRecord) error {
	query := `INSERT INTO transfer_records (id, user_id, gold_grams, from_wallet, to_wallet, spot_price_usd, notes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := q.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		record.GoldGrams,
		record.FromWallet,
		record.ToWallet,
		record.SpotPriceUsd,
		record.Notes,
		record.CreatedAt,
	)
	if err != nil {
		return wrapDBError("failed to create transfer record", err)
	}
	return nil
}

// GetTransfersByUserID retrieves a paginated transfer history for a user,
// newest first. It performs two queries: one for the data and one for the
// total count.
func (r *TransferRepository) GetTransfersByUserID(ctx context.Context, q repository.DBExecutor, userID string, limit, offset int) ([]domain.TransferRecord, int64, error) {
	records := []domain.TransferRecord{}
	query := `SELECT id, user_id, gold_grams, from_wallet, to_wallet, spot_price_usd, notes, created_at
	          FROM transfer_records
	          WHERE user_id = $1
	          ORDER BY created_at DESC
	          LIMIT $2 OFFSET $3`
	if err := q.SelectContext(ctx, &records, query, userID, limit, offset); err != nil {
		return nil, 0, wrapDBError(fmt.Sprintf("failed to fetch transfers for user %s", userID), err)
	}

	var totalCount int64
	countQuery := `SELECT COUNT(*) FROM transfer_records WHERE user_id = $1`
	if err := q.GetContext(ctx, &totalCount, countQuery, userID); err != nil {
		return nil, 0, wrapDBError(fmt.Sprintf("failed to count transfers for user %s", userID), err)
	}

	return records, totalCount, nil
}
