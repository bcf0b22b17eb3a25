// Package store holds the engine's persisted state: an optional
// indicator cache for faster re-runs (Postgres via pgx, Redis as a
// front cache) and the run-log directory of JSON snapshots (spec §6
// "Persisted state"). A repository-pattern cache over
// (ticker, as_of, indicator, window) -> value rows.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// IndicatorKey identifies one cached derived-indicator value.
type IndicatorKey struct {
	Ticker    string
	AsOf      time.Time
	Indicator string
	Window    int
}

// IndicatorCache is a Postgres-backed cache of derived indicator
// values, keyed by (ticker, as_of, indicator, window). Writes are
// last-write-wins under a mutex (spec §5 "Shared resources").
type IndicatorCache struct {
	pool *pgxpool.Pool
	mu   sync.Mutex
}

// NewIndicatorCache wraps an already-connected pgx pool.
func NewIndicatorCache(pool *pgxpool.Pool) *IndicatorCache {
	return &IndicatorCache{pool: pool}
}

// EnsureSchema creates the backing table if it does not already
// exist. Safe to call on every process start.
func (c *IndicatorCache) EnsureSchema(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS indicator_cache (
			ticker    TEXT NOT NULL,
			as_of     DATE NOT NULL,
			indicator TEXT NOT NULL,
			window_n  INT  NOT NULL,
			value     DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (ticker, as_of, indicator, window_n)
		)`)
	return err
}

// Get returns the cached value for key, and whether it was present.
func (c *IndicatorCache) Get(ctx context.Context, key IndicatorKey) (float64, bool, error) {
	var value float64
	err := c.pool.QueryRow(ctx, `
		SELECT value FROM indicator_cache
		WHERE ticker = $1 AND as_of = $2 AND indicator = $3 AND window_n = $4`,
		key.Ticker, key.AsOf, key.Indicator, key.Window).Scan(&value)
	if err != nil {
		return 0, false, nil
	}
	return value, true, nil
}

// Put writes key -> value, last-write-wins under c.mu (spec §5).
func (c *IndicatorCache) Put(ctx context.Context, key IndicatorKey, value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.pool.Exec(ctx, `
		INSERT INTO indicator_cache (ticker, as_of, indicator, window_n, value)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ticker, as_of, indicator, window_n)
		DO UPDATE SET value = EXCLUDED.value`,
		key.Ticker, key.AsOf, key.Indicator, key.Window, value)
	return err
}
