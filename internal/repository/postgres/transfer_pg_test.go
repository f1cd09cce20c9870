// internal/repository/postgres/transfer_pg_test.go
package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Finatrades/finatradesgold-sub015/internal/domain"
)

func TestTransferRepository_CreateTransferRecord(t *testing.T) {
	ctx := context.Background()
	repo := NewTransferRepository(nil)
	db, mock := newMockDB(t)

	record := domain.NewTransferRecord("user1", decimal.NewFromInt(7), domain.WalletTypeFPGW, domain.WalletTypeMPGW, decimal.NewFromInt(80), nil)

	mock.ExpectExec("INSERT INTO transfer_records").
		WithArgs(record.ID, "user1", sqlmock.AnyArg(), "FPGW", "MPGW", sqlmock.AnyArg(), nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateTransferRecord(ctx, db, record))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepository_GetTransfersByUserID(t *testing.T) {
	ctx := context.Background()
	repo := NewTransferRepository(nil)
	db, mock := newMockDB(t)
	createdAt := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	columns := []string{"id", "user_id", "gold_grams", "from_wallet", "to_wallet", "spot_price_usd", "notes", "created_at"}
	mock.ExpectQuery("SELECT (.+) FROM transfer_records\\s+WHERE user_id = \\$1\\s+ORDER BY created_at DESC").
		WithArgs("user1", 10, 0).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("tr-2", "user1", "7", "FPGW", "MPGW", "80", nil, createdAt).
			AddRow("tr-1", "user1", "4", "MPGW", "FPGW", "78.5", "note", createdAt.Add(-time.Hour)))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM transfer_records WHERE user_id = \\$1").
		WithArgs("user1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	records, total, err := repo.GetTransfersByUserID(ctx, db, "user1", 10, 0)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "tr-2", records[0].ID)
	assert.Equal(t, domain.WalletTypeFPGW, records[0].FromWallet)
	require.NotNil(t, records[1].Notes)
	assert.Equal(t, "note", *records[1].Notes)
	assert.Equal(t, int64(5), total)
	require.NoError(t, mock.ExpectationsWereMet())
}
