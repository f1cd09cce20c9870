// internal/service/ledger_service.go
package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Finatrades/finatradesgold-sub015/internal/domain"
	"github.com/Finatrades/finatradesgold-sub015/internal/pricing"
	"github.com/Finatrades/finatradesgold-sub015/internal/repository"
	"github.com/Finatrades/finatradesgold-sub015/internal/util"
	"github.com/Finatrades/finatradesgold-sub015/pkg/db"
)

// CreateBatchInput carries the parameters for minting a new fixed-price batch
// on behalf of an external collaborator (purchase flow, BNSL engine, trade
// settlement).
type CreateBatchInput struct {
	OwnerID             string
	Grams               decimal.Decimal
	LockedPriceUsd      decimal.Decimal
	Bucket              domain.Bucket
	SourceTransactionID *string
	SourceType          domain.SourceType
}

// LedgerService defines the business logic of the dual-wallet gold ledger:
// balance aggregation over both pools, spend validation, and internal
// transfers between the live and fixed pools.
type LedgerService interface {
	GetBalance(ctx context.Context, userID string) (*domain.WalletSnapshot, error)
	ListBatches(ctx context.Context, userID string, bucket *domain.Bucket) ([]domain.GoldBatch, error)
	GetTransferHistory(ctx context.Context, userID string, limit, offset int) ([]domain.TransferRecord, int64, error)
	ValidateSpend(ctx context.Context, userID string, grams decimal.Decimal, wallet domain.WalletType) (*domain.SpendCheck, error)
	Transfer(ctx context.Context, userID string, grams decimal.Decimal, from, to domain.WalletType, notes *string) (*domain.TransferRecord, error)
	CreateBatch(ctx context.Context, input CreateBatchInput) (*domain.GoldBatch, error)
	RetagBucket(ctx context.Context, batchID string, bucket domain.Bucket) (*domain.GoldBatch, error)
}

// ledgerService implements the LedgerService interface.
type ledgerService struct {
	dbBeginner   db.DBTxBeginner       // For starting transactions (e.g., *sqlx.DB)
	dbExecutor   repository.DBExecutor // For non-transactional reads (e.g., *sqlx.DB)
	batchRepo    repository.BatchRepository
	ledgerRepo   repository.LiveLedgerRepository
	transferRepo repository.TransferRepository
	oracle       pricing.Oracle
	beginTx      db.BeginTxFunc // Injected so tests can substitute transaction control
	beginReadTx  db.BeginTxFunc
	commitTx     db.CommitTxFunc
	rollbackTx   db.RollbackTxFunc
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	batchRepo repository.BatchRepository,
	ledgerRepo repository.LiveLedgerRepository,
	transferRepo repository.TransferRepository,
	oracle pricing.Oracle,
	beginTx db.BeginTxFunc,
	beginReadTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) LedgerService {
	return &ledgerService{
		dbBeginner:   dbBeginner,
		dbExecutor:   dbExecutor,
		batchRepo:    batchRepo,
		ledgerRepo:   ledgerRepo,
		transferRepo: transferRepo,
		oracle:       oracle,
		beginTx:      beginTx,
		beginReadTx:  beginReadTx,
		commitTx:     commitTx,
		rollbackTx:   rollbackTx,
	}
}

// GetBalance computes a consistent WalletSnapshot for a user. Live-pool rows
// and the active batch set are read inside one read-only transaction so the
// snapshot cannot mix state from before and after a concurrent transfer; the
// spot price is read once from the oracle.
func (s *ledgerService) GetBalance(ctx context.Context, userID string) (*domain.WalletSnapshot, error) {
	quote, err := s.oracle.SpotPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get balance: failed to read spot price: %w", err)
	}

	txController, err := s.beginReadTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("get balance: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("get balance: transaction controller does not implement DBExecutor")
	}

	liveBalances, err := s.ledgerRepo.GetBalances(ctx, txExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("get balance: failed to read live pool for user %s: %w", userID, err)
	}

	batches, err := s.batchRepo.ListActiveBatches(ctx, txExecutor, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("get balance: failed to list active batches for user %s: %w", userID, err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("get balance: failed to commit transaction: %w", err)
	}

	return domain.BuildWalletSnapshot(userID, liveBalances, batches, quote.PriceUsdPerGram, quote.Timestamp), nil
}

// ListBatches retrieves all batches for a user, oldest first, optionally
// restricted to active batches of one bucket.
func (s *ledgerService) ListBatches(ctx context.Context, userID string, bucket *domain.Bucket) ([]domain.GoldBatch, error) {
	if bucket != nil {
		if !bucket.Valid() {
			return nil, util.ErrInvalidInput
		}
		batches, err := s.batchRepo.ListActiveBatches(ctx, s.dbExecutor, userID, bucket)
		if err != nil {
			return nil, fmt.Errorf("list batches: %w", err)
		}
		return batches, nil
	}
	batches, err := s.batchRepo.ListBatchesByOwner(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}

// GetTransferHistory retrieves a paginated transfer history for a user.
func (s *ledgerService) GetTransferHistory(ctx context.Context, userID string, limit, offset int) ([]domain.TransferRecord, int64, error) {
	records, totalCount, err := s.transferRepo.GetTransfersByUserID(ctx, s.dbExecutor, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("get transfer history: %w", err)
	}
	return records, totalCount, nil
}

// ValidateSpend reports whether a hypothetical spend of the given grams from
// the given wallet would be permitted right now. Pure read, never mutates.
func (s *ledgerService) ValidateSpend(ctx context.Context, userID string, grams decimal.Decimal, wallet domain.WalletType) (*domain.SpendCheck, error) {
	if grams.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrInvalidQuantity
	}
	if !wallet.Valid() {
		return nil, util.ErrInvalidInput
	}

	available, err := s.availableGrams(ctx, s.dbExecutor, userID, wallet)
	if err != nil {
		return nil, fmt.Errorf("validate spend: %w", err)
	}

	if available.LessThan(grams) {
		return &domain.SpendCheck{
			Allowed: false,
			Reason:  fmt.Sprintf("available balance %s g in %s is less than requested %s g", available, wallet, grams),
		}, nil
	}
	return &domain.SpendCheck{Allowed: true}, nil
}

// availableGrams reads the AVAILABLE bucket of one pool.
func (s *ledgerService) availableGrams(ctx context.Context, q repository.DBExecutor, userID string, wallet domain.WalletType) (decimal.Decimal, error) {
	if wallet == domain.WalletTypeFPGW {
		return s.batchRepo.SumActiveRemaining(ctx, q, userID, domain.BucketAvailable)
	}
	return s.ledgerRepo.GetBalance(ctx, q, userID, domain.BucketAvailable)
}

// Transfer moves gold between the live pool and the fixed pool. The whole
// validate-then-mutate sequence runs inside one transaction holding the
// per-user advisory lock, so two concurrent transfers for the same user can
// never both validate against stale totals. The spot price is read before the
// transaction begins to keep oracle I/O outside the lock.
func (s *ledgerService) Transfer(ctx context.Context, userID string, grams decimal.Decimal, from, to domain.WalletType, notes *string) (*domain.TransferRecord, error) {
	if grams.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrInvalidQuantity
	}
	if !from.Valid() || !to.Valid() {
		return nil, util.ErrInvalidInput
	}
	if from == to {
		return nil, util.ErrSameWalletTransfer
	}

	quote, err := s.oracle.SpotPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("transfer: failed to read spot price: %w", err)
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("transfer: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("transfer: transaction controller does not implement DBExecutor")
	}

	if err := db.LockUser(ctx, txExecutor, userID); err != nil {
		return nil, fmt.Errorf("transfer: %w", err)
	}

	record := domain.NewTransferRecord(userID, grams, from, to, quote.PriceUsdPerGram, notes)

	switch from {
	case domain.WalletTypeMPGW:
		if err := s.transferLiveToFixed(ctx, txExecutor, record); err != nil {
			return nil, err
		}
	case domain.WalletTypeFPGW:
		if err := s.transferFixedToLive(ctx, txExecutor, record); err != nil {
			return nil, err
		}
	}

	if err := s.transferRepo.CreateTransferRecord(ctx, txExecutor, record); err != nil {
		return nil, fmt.Errorf("transfer: failed to create transfer record: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("transfer: failed to commit transaction: %w", err)
	}

	return record, nil
}

// transferLiveToFixed debits the live AVAILABLE bucket and mints a new batch
// locked at the spot price carried on the record.
func (s *ledgerService) transferLiveToFixed(ctx context.Context, q repository.DBExecutor, record *domain.TransferRecord) error {
	err := s.ledgerRepo.Debit(ctx, q, record.UserID, domain.BucketAvailable, record.GoldGrams)
	if err != nil {
		if util.IsError(err, util.ErrInsufficientFunds) {
			return util.ErrInsufficientFunds
		}
		return fmt.Errorf("transfer: failed to debit live pool: %w", err)
	}

	batch := domain.NewGoldBatch(
		record.UserID,
		record.GoldGrams,
		record.SpotPriceUsd,
		domain.BucketAvailable,
		&record.ID,
		domain.SourceTypeInternalTransfer,
	)
	if err := s.batchRepo.CreateBatch(ctx, q, batch); err != nil {
		return fmt.Errorf("transfer: failed to create batch: %w", err)
	}
	return nil
}

// transferFixedToLive liquidates AVAILABLE batches oldest-first and credits
// the live AVAILABLE bucket. The total is validated before any batch is
// touched so a shortfall can never leave partial consumption behind.
func (s *ledgerService) transferFixedToLive(ctx context.Context, q repository.DBExecutor, record *domain.TransferRecord) error {
	bucket := domain.BucketAvailable
	batches, err := s.batchRepo.ListActiveBatches(ctx, q, record.UserID, &bucket)
	if err != nil {
		return fmt.Errorf("transfer: failed to list active batches: %w", err)
	}

	total := decimal.Zero
	for _, b := range batches {
		total = total.Add(b.RemainingGrams)
	}
	if total.LessThan(record.GoldGrams) {
		return util.ErrInsufficientFunds
	}

	// FIFO: oldest lots liquidate first regardless of their locked price.
	stillNeeded := record.GoldGrams
	for _, b := range batches {
		if stillNeeded.IsZero() {
			break
		}
		take := decimal.Min(b.RemainingGrams, stillNeeded)
		if _, err := s.batchRepo.ConsumeFromBatch(ctx, q, b.ID, take); err != nil {
			return fmt.Errorf("transfer: failed to consume from batch %s: %w", b.ID, err)
		}
		stillNeeded = stillNeeded.Sub(take)
	}

	if err := s.ledgerRepo.Credit(ctx, q, record.UserID, domain.BucketAvailable, record.GoldGrams); err != nil {
		return fmt.Errorf("transfer: failed to credit live pool: %w", err)
	}
	return nil
}

// CreateBatch mints a new fixed-price batch for an external collaborator.
func (s *ledgerService) CreateBatch(ctx context.Context, input CreateBatchInput) (*domain.GoldBatch, error) {
	if input.Grams.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrInvalidQuantity
	}
	if input.LockedPriceUsd.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrInvalidPrice
	}
	if !input.Bucket.Valid() || !input.SourceType.Valid() || input.OwnerID == "" {
		return nil, util.ErrInvalidInput
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("create batch: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("create batch: transaction controller does not implement DBExecutor")
	}

	if err := db.LockUser(ctx, txExecutor, input.OwnerID); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}

	batch := domain.NewGoldBatch(
		input.OwnerID,
		input.Grams,
		input.LockedPriceUsd,
		input.Bucket,
		input.SourceTransactionID,
		input.SourceType,
	)
	if err := s.batchRepo.CreateBatch(ctx, txExecutor, batch); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("create batch: failed to commit transaction: %w", err)
	}

	return batch, nil
}

// RetagBucket moves an active batch into a different balance bucket on behalf
// of the BNSL or trade engine. The batch owner's lock is taken first so
// retagging serializes against transfers touching the same batches.
func (s *ledgerService) RetagBucket(ctx context.Context, batchID string, bucket domain.Bucket) (*domain.GoldBatch, error) {
	if !bucket.Valid() {
		return nil, util.ErrInvalidInput
	}

	batch, err := s.batchRepo.GetBatchByID(ctx, s.dbExecutor, batchID)
	if err != nil {
		return nil, fmt.Errorf("retag bucket: %w", err)
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("retag bucket: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("retag bucket: transaction controller does not implement DBExecutor")
	}

	if err := db.LockUser(ctx, txExecutor, batch.OwnerID); err != nil {
		return nil, fmt.Errorf("retag bucket: %w", err)
	}

	updated, err := s.batchRepo.RetagBucket(ctx, txExecutor, batchID, bucket)
	if err != nil {
		return nil, fmt.Errorf("retag bucket: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("retag bucket: failed to commit transaction: %w", err)
	}

	return updated, nil
}
