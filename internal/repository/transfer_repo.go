// internal/repository/transfer_repo.go
package repository

import (
	"context"

	"github.com/Finatrades/finatradesgold-sub015/internal/domain"
)

// TransferRepository defines the interface for the append-only internal
// transfer ledger.
type TransferRepository interface {
	// CreateTransferRecord appends a new transfer record using the provided DBExecutor.
	CreateTransferRecord(ctx context.Context, q DBExecutor, record *domain.TransferRecord) error
	// GetTransfersByUserID retrieves a paginated transfer history for a user,
	// newest first, along with the total count.
	GetTransfersByUserID(ctx context.Context, q DBExecutor, userID string, limit, offset int) ([]domain.TransferRecord, int64, error)
}
