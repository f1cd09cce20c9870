// internal/domain/transfer.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletType identifies one of the two gold pools.
type WalletType string

const (
	// WalletTypeMPGW is the market-price gold wallet, valued continuously at spot.
	WalletTypeMPGW WalletType = "MPGW"
	// WalletTypeFPGW is the fixed-price gold wallet, composed of price-locked batches.
	WalletTypeFPGW WalletType = "FPGW"
)

// Valid reports whether the wallet type is a known value.
func (w WalletType) Valid() bool {
	return w == WalletTypeMPGW || w == WalletTypeFPGW
}

// TransferRecord is the append-only ledger entry of an internal transfer
// between the two pools. SpotPriceUsd is the oracle price at execution time,
// kept so the realized USD value of an FPGW liquidation stays auditable.
type TransferRecord struct {
	ID           string          `db:"id" json:"id"`
	UserID       string          `db:"user_id" json:"user_id"`
	GoldGrams    decimal.Decimal `db:"gold_grams" json:"gold_grams"` // NUMERIC(20, 8)
	FromWallet   WalletType      `db:"from_wallet" json:"from_wallet"`
	ToWallet     WalletType      `db:"to_wallet" json:"to_wallet"`
	SpotPriceUsd decimal.Decimal `db:"spot_price_usd" json:"spot_price_usd"` // NUMERIC(20, 4), per gram
	Notes        *string         `db:"notes" json:"notes"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// NewTransferRecord creates a new TransferRecord instance.
func NewTransferRecord(
	userID string,
	goldGrams decimal.Decimal,
	fromWallet, toWallet WalletType,
	spotPriceUsd decimal.Decimal,
	notes *string,
) *TransferRecord {
	return &TransferRecord{
		ID:           uuid.NewString(),
		UserID:       userID,
		GoldGrams:    goldGrams,
		FromWallet:   fromWallet,
		ToWallet:     toWallet,
		SpotPriceUsd: spotPriceUsd,
		Notes:        notes,
		CreatedAt:    time.Now().UTC(),
	}
}

// SpendCheck is the result of a spend eligibility query. It never reflects a
// reservation; a later transfer re-validates under the user lock.
type SpendCheck struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}
