// internal/domain/batch.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchStatus defines the lifecycle state of a fixed-price gold batch.
type BatchStatus string

const (
	BatchStatusActive      BatchStatus = "ACTIVE"
	BatchStatusConsumed    BatchStatus = "CONSUMED"    // remaining grams reached zero
	BatchStatusTransferred BatchStatus = "TRANSFERRED" // ownership moved out
)

// Valid reports whether the status is a known value.
func (s BatchStatus) Valid() bool {
	switch s {
	case BatchStatusActive, BatchStatusConsumed, BatchStatusTransferred:
		return true
	}
	return false
}

// Bucket sub-classifies a pool's balance and constrains which operations may
// consume it. Transfers only touch AVAILABLE; the BNSL and trade engines move
// batches into and out of the other buckets via retagging.
type Bucket string

const (
	BucketAvailable     Bucket = "AVAILABLE"
	BucketPending       Bucket = "PENDING"
	BucketLockedBNSL    Bucket = "LOCKED_BNSL"
	BucketReservedTrade Bucket = "RESERVED_TRADE"
)

// Buckets lists all balance buckets in reporting order.
var Buckets = []Bucket{BucketAvailable, BucketPending, BucketLockedBNSL, BucketReservedTrade}

// Valid reports whether the bucket is a known value.
func (b Bucket) Valid() bool {
	switch b {
	case BucketAvailable, BucketPending, BucketLockedBNSL, BucketReservedTrade:
		return true
	}
	return false
}

// SourceType records the kind of operation that created a batch.
type SourceType string

const (
	SourceTypePurchase         SourceType = "PURCHASE"
	SourceTypeBNSLLock         SourceType = "BNSL_LOCK"
	SourceTypeTradeSettlement  SourceType = "TRADE_SETTLEMENT"
	SourceTypeInternalTransfer SourceType = "INTERNAL_TRANSFER"
)

// Valid reports whether the source type is a known value.
func (s SourceType) Valid() bool {
	switch s {
	case SourceTypePurchase, SourceTypeBNSLLock, SourceTypeTradeSettlement, SourceTypeInternalTransfer:
		return true
	}
	return false
}

// GoldBatch represents a lot of fixed-price gold. The locked price is set at
// creation and never changes; only RemainingGrams, Status and Bucket may be
// updated, and RemainingGrams only ever decreases.
type GoldBatch struct {
	ID                    string          `db:"id" json:"id"`
	OwnerID               string          `db:"owner_id" json:"owner_id"`
	OriginalGrams         decimal.Decimal `db:"original_grams" json:"original_grams"`                     // NUMERIC(20, 8)
	RemainingGrams        decimal.Decimal `db:"remaining_grams" json:"remaining_grams"`                   // NUMERIC(20, 8)
	LockedPriceUsdPerGram decimal.Decimal `db:"locked_price_usd_per_gram" json:"locked_price_usd_per_gram"` // NUMERIC(20, 4)
	Status                BatchStatus     `db:"status" json:"status"`
	Bucket                Bucket          `db:"balance_bucket" json:"balance_bucket"`
	SourceTransactionID   *string         `db:"source_transaction_id" json:"source_transaction_id"`
	SourceType            SourceType      `db:"source_type" json:"source_type"`
	CreatedAt             time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time       `db:"updated_at" json:"updated_at"`
}

// NewGoldBatch creates a new active GoldBatch instance.
func NewGoldBatch(
	ownerID string,
	grams decimal.Decimal,
	lockedPriceUsdPerGram decimal.Decimal,
	bucket Bucket,
	sourceTransactionID *string,
	sourceType SourceType,
) *GoldBatch {
	now := time.Now().UTC()
	return &GoldBatch{
		ID:                    uuid.NewString(),
		OwnerID:               ownerID,
		OriginalGrams:         grams,
		RemainingGrams:        grams,
		LockedPriceUsdPerGram: lockedPriceUsdPerGram,
		Status:                BatchStatusActive,
		Bucket:                bucket,
		SourceTransactionID:   sourceTransactionID,
		SourceType:            sourceType,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}
