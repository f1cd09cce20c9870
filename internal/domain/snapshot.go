// internal/domain/snapshot.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PoolBalance reports one pool's gold grams broken down by bucket.
type PoolBalance struct {
	Available decimal.Decimal `json:"available"`
	Pending   decimal.Decimal `json:"pending"`
	Locked    decimal.Decimal `json:"locked"`
	Reserved  decimal.Decimal `json:"reserved"`
	Total     decimal.Decimal `json:"total"`
}

// NewPoolBalance builds a PoolBalance from per-bucket gram totals. Missing
// buckets count as zero.
func NewPoolBalance(byBucket map[Bucket]decimal.Decimal) PoolBalance {
	get := func(b Bucket) decimal.Decimal {
		if v, ok := byBucket[b]; ok {
			return v
		}
		return decimal.Zero
	}
	p := PoolBalance{
		Available: get(BucketAvailable),
		Pending:   get(BucketPending),
		Locked:    get(BucketLockedBNSL),
		Reserved:  get(BucketReservedTrade),
	}
	p.Total = p.Available.Add(p.Pending).Add(p.Locked).Add(p.Reserved)
	return p
}

// WalletSnapshot is the derived view of a user's holdings across both pools.
// It is computed on demand and never persisted; gold grams are authoritative
// and every USD figure is derived at read time.
type WalletSnapshot struct {
	UserID string `json:"user_id"`

	Live  PoolBalance `json:"live_wallet"`
	Fixed PoolBalance `json:"fixed_wallet"`

	// FixedAvgLockedPriceUsd is the remaining-grams-weighted average of the
	// active batches' locked prices. Zero when no active batches exist.
	FixedAvgLockedPriceUsd decimal.Decimal `json:"fixed_avg_locked_price_usd"`

	SpotPriceUsd decimal.Decimal `json:"gold_price_per_gram"`
	SpotPriceAt  time.Time       `json:"gold_price_at"`

	LiveValueUsd        decimal.Decimal `json:"live_value_usd"`         // live total at spot
	FixedLockedValueUsd decimal.Decimal `json:"fixed_locked_value_usd"` // fixed total at weighted locked price
	FixedMarketValueUsd decimal.Decimal `json:"fixed_market_value_usd"` // fixed total at spot

	GeneratedAt time.Time `json:"generated_at"`
}

// usdScale keeps derived USD figures at cent-level precision.
const usdScale = 4

// BatchBucketTotals sums remaining grams of active batches grouped by bucket.
// Non-active batches contribute nothing.
func BatchBucketTotals(batches []GoldBatch) map[Bucket]decimal.Decimal {
	totals := make(map[Bucket]decimal.Decimal, len(Buckets))
	for _, b := range batches {
		if b.Status != BatchStatusActive {
			continue
		}
		totals[b.Bucket] = totals[b.Bucket].Add(b.RemainingGrams)
	}
	return totals
}

// WeightedAvgLockedPrice computes the remaining-grams-weighted average locked
// price over active batches. Returns zero when there is nothing active.
func WeightedAvgLockedPrice(batches []GoldBatch) decimal.Decimal {
	var grams, value decimal.Decimal
	for _, b := range batches {
		if b.Status != BatchStatusActive {
			continue
		}
		grams = grams.Add(b.RemainingGrams)
		value = value.Add(b.RemainingGrams.Mul(b.LockedPriceUsdPerGram))
	}
	if grams.IsZero() {
		return decimal.Zero
	}
	return value.DivRound(grams, usdScale)
}

// BuildWalletSnapshot combines live-pool balances, the active batch set and
// the current spot price into a WalletSnapshot. Pure function: callers are
// responsible for reading the inputs consistently.
func BuildWalletSnapshot(
	userID string,
	live map[Bucket]decimal.Decimal,
	batches []GoldBatch,
	spotPriceUsd decimal.Decimal,
	spotPriceAt time.Time,
) *WalletSnapshot {
	livePool := NewPoolBalance(live)
	fixedPool := NewPoolBalance(BatchBucketTotals(batches))
	avgLocked := WeightedAvgLockedPrice(batches)

	return &WalletSnapshot{
		UserID:                 userID,
		Live:                   livePool,
		Fixed:                  fixedPool,
		FixedAvgLockedPriceUsd: avgLocked,
		SpotPriceUsd:           spotPriceUsd,
		SpotPriceAt:            spotPriceAt,
		LiveValueUsd:           livePool.Total.Mul(spotPriceUsd).Round(usdScale),
		FixedLockedValueUsd:    fixedPool.Total.Mul(avgLocked).Round(usdScale),
		FixedMarketValueUsd:    fixedPool.Total.Mul(spotPriceUsd).Round(usdScale),
		GeneratedAt:            time.Now().UTC(),
	}
}
