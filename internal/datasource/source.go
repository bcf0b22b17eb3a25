// Package datasource defines the price-source collaborator the
// pipeline consumes (spec §6 "Price source") and a rate-limited
// wrapper around it for outbound request throttling.
package datasource

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"position-signal-engine/internal/marketdata"
)

// Source fetches OHLCV history for one ticker as of a given date. A
// Source implementation's errors are always non-fatal to the whole
// run; the caller converts them to a per-instrument Rejection.
type Source interface {
	Fetch(ctx context.Context, ticker string, asOf time.Time, lookbackYears int) (*marketdata.PriceHistory, error)
}

// RateLimited wraps a Source with an outbound request throttle, the
// backed by golang.org/x/time/rate, suited to an arbitrary upstream
// price API.
type RateLimited struct {
	inner   Source
	limiter *rate.Limiter
}

// NewRateLimited wraps inner with a token-bucket limiter.
func NewRateLimited(inner Source, limiter *rate.Limiter) *RateLimited {
	return &RateLimited{inner: inner, limiter: limiter}
}

func (r *RateLimited) Fetch(ctx context.Context, ticker string, asOf time.Time, lookbackYears int) (*marketdata.PriceHistory, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.Fetch(ctx, ticker, asOf, lookbackYears)
}
