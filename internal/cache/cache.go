package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTL is how long a cached payload stays valid. Shared by all callers,
// no per-key override.
const TTL = 24 * time.Hour

// QueryKey returns the cache key for a Dune query result set.
func QueryKey(queryID string) string {
	return "dune_cache_" + queryID
}

// Fixed keys for the Mixpanel aggregates, which are cached as a whole
// rather than per query.
const (
	MixpanelMetricsKey = "mixpanel_metrics"
	MixpanelEventsKey  = "mixpanel_monthly_events"
)

// entry is the stored envelope. The timestamp is authoritative for
// expiry; the Redis-side TTL only keeps dead keys from piling up.
type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// Cache is a time-bounded key/value store backed by Redis. It is
// advisory: every failure on read degrades to a miss and every failure
// on write is swallowed, so callers never see a cache error.
type Cache struct {
	rdb *redis.Client
	now func() time.Time
}

// New creates a Cache backed by Redis.
func New(redisURL, password string) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Cache{rdb: rdb, now: time.Now}, nil
}

// Close shuts down the Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// Get returns the payload stored under key, or ok=false when the key is
// missing, unparseable, older than TTL, or Redis is unreachable.
func (c *Cache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false
	}
	if c.now().UnixMilli()-e.Timestamp >= TTL.Milliseconds() {
		return nil, false
	}
	return e.Data, true
}

// Set stores payload under key with the current timestamp. Serialization
// and Redis failures are no-ops; callers must not depend on the write.
func (c *Cache) Set(ctx context.Context, key string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	raw, err := json.Marshal(entry{Data: data, Timestamp: c.now().UnixMilli()})
	if err != nil {
		return
	}
	c.rdb.Set(ctx, key, raw, TTL) //nolint:errcheck
}
