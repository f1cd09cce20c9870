// internal/pricing/oracle.go
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ErrPriceUnavailable is returned when no usable spot price can be obtained.
var ErrPriceUnavailable = errors.New("spot price unavailable")

// Quote is a spot price observation from the oracle.
type Quote struct {
	PriceUsdPerGram decimal.Decimal `json:"price_usd_per_gram"`
	Timestamp       time.Time       `json:"timestamp"`
}

// Oracle supplies the current gold spot price per gram in USD. The ledger
// treats it as read-only and eventually consistent: whatever value the oracle
// returns at call time is the value used.
type Oracle interface {
	SpotPrice(ctx context.Context) (Quote, error)
}

// StaticOracle returns a fixed price. Used for local development and tests.
type StaticOracle struct {
	price decimal.Decimal
}

// NewStaticOracle creates an oracle that always quotes the given price.
func NewStaticOracle(priceUsdPerGram decimal.Decimal) (*StaticOracle, error) {
	if priceUsdPerGram.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: static price must be positive, got %s", ErrPriceUnavailable, priceUsdPerGram)
	}
	return &StaticOracle{price: priceUsdPerGram}, nil
}

// SpotPrice returns the configured price stamped with the current time.
func (o *StaticOracle) SpotPrice(ctx context.Context) (Quote, error) {
	return Quote{PriceUsdPerGram: o.price, Timestamp: time.Now().UTC()}, nil
}

// feedPayload is the JSON body served by the external price feed.
type feedPayload struct {
	PriceUsdPerGram decimal.Decimal `json:"price_usd_per_gram"`
	Timestamp       time.Time       `json:"timestamp"`
}

// FeedOracle fetches the spot price from an HTTP JSON feed.
type FeedOracle struct {
	url    string
	client *http.Client
}

// NewFeedOracle creates an oracle backed by the given feed URL.
func NewFeedOracle(url string, timeout time.Duration) *FeedOracle {
	return &FeedOracle{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// SpotPrice fetches and validates the current quote from the feed.
func (o *FeedOracle) SpotPrice(ctx context.Context) (Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.url, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to build price feed request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("%w: feed returned status %d", ErrPriceUnavailable, resp.StatusCode)
	}

	var payload feedPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Quote{}, fmt.Errorf("%w: failed to decode feed response: %v", ErrPriceUnavailable, err)
	}
	if payload.PriceUsdPerGram.LessThanOrEqual(decimal.Zero) {
		return Quote{}, fmt.Errorf("%w: feed returned non-positive price %s", ErrPriceUnavailable, payload.PriceUsdPerGram)
	}

	ts := payload.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return Quote{PriceUsdPerGram: payload.PriceUsdPerGram, Timestamp: ts}, nil
}

// CachedOracle wraps another oracle and serves a quote from memory while it is
// younger than the TTL. Concurrent callers share one upstream fetch result.
type CachedOracle struct {
	inner Oracle
	ttl   time.Duration

	mu        sync.Mutex
	last      Quote
	fetchedAt time.Time
}

// NewCachedOracle creates a caching wrapper around an oracle.
func NewCachedOracle(inner Oracle, ttl time.Duration) *CachedOracle {
	return &CachedOracle{inner: inner, ttl: ttl}
}

// SpotPrice returns the cached quote when fresh, otherwise fetches upstream.
// A failed refresh does not evict the previous quote, but the error is
// returned: a transfer must not lock in a stale price silently.
func (o *CachedOracle) SpotPrice(ctx context.Context) (Quote, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.fetchedAt.IsZero() && time.Since(o.fetchedAt) < o.ttl {
		return o.last, nil
	}

	quote, err := o.inner.SpotPrice(ctx)
	if err != nil {
		return Quote{}, err
	}
	o.last = quote
	o.fetchedAt = time.Now()
	return quote, nil
}
