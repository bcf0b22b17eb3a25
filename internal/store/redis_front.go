package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisFront is a thin front cache over IndicatorCache: a hit avoids
// the Postgres round trip entirely; a miss falls through and the
// caller is responsible for populating it.
type RedisFront struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisFront wraps an already-connected redis client.
func NewRedisFront(client *redis.Client, ttl time.Duration) *RedisFront {
	return &RedisFront{client: client, ttl: ttl}
}

func (f *RedisFront) Get(ctx context.Context, key IndicatorKey) (float64, bool, error) {
	raw, err := f.client.Get(ctx, redisKey(key)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func (f *RedisFront) Put(ctx context.Context, key IndicatorKey, value float64) error {
	return f.client.Set(ctx, redisKey(key), strconv.FormatFloat(value, 'g', -1, 64), f.ttl).Err()
}

func redisKey(key IndicatorKey) string {
	return key.Ticker + ":" + key.AsOf.Format("2006-01-02") + ":" + key.Indicator + ":" + strconv.Itoa(key.Window)
}
