// internal/domain/ledger.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LiveBalance is one row of the live-pool running-balance ledger, keyed by
// (user, bucket). Buy/sell/send/receive collaborators and the transfer engine
// mutate it through guarded SQL updates only.
type LiveBalance struct {
	UserID    string          `db:"user_id" json:"user_id"`
	Bucket    Bucket          `db:"bucket" json:"bucket"`
	Grams     decimal.Decimal `db:"grams" json:"grams"` // NUMERIC(20, 8)
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
