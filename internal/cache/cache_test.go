package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	c, err := New("redis://"+mr.Addr(), "")
	if err != nil {
		mr.Close()
		t.Fatalf("New: %v", err)
	}
	return c, mr
}

func TestGetMissingKey(t *testing.T) {
	c, mr := setupTestCache(t)
	defer mr.Close()
	defer c.Close()

	if _, ok := c.Get(context.Background(), "dune_cache_123"); ok {
		t.Error("Get should miss for absent key")
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	c, mr := setupTestCache(t)
	defer mr.Close()
	defer c.Close()

	ctx := context.Background()
	type row struct {
		Day         string  `json:"day"`
		TotalStaked float64 `json:"total_staked"`
	}
	in := []row{{Day: "2024-01-01", TotalStaked: 100}, {Day: "2024-01-02", TotalStaked: 120}}

	c.Set(ctx, QueryKey("6590984"), in)

	raw, ok := c.Get(ctx, QueryKey("6590984"))
	if !ok {
		t.Fatal("Get should hit after Set")
	}
	var out []row
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 2 || out[1].TotalStaked != 120 {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestGetExpiredEntry(t *testing.T) {
	c, mr := setupTestCache(t)
	defer mr.Close()
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "dune_cache_1", []int{1, 2, 3})

	// Advance the clock past TTL; the stored timestamp decides expiry
	// even though the Redis key still exists.
	c.now = func() time.Time { return time.Now().Add(TTL + time.Minute) }

	if _, ok := c.Get(ctx, "dune_cache_1"); ok {
		t.Error("Get should miss after TTL elapsed")
	}
}

func TestGetJustInsideTTL(t *testing.T) {
	c, mr := setupTestCache(t)
	defer mr.Close()
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "dune_cache_2", "payload")

	c.now = func() time.Time { return time.Now().Add(TTL - time.Minute) }

	if _, ok := c.Get(ctx, "dune_cache_2"); !ok {
		t.Error("Get should hit just inside TTL")
	}
}

func TestGetCorruptEntry(t *testing.T) {
	c, mr := setupTestCache(t)
	defer mr.Close()
	defer c.Close()

	mr.Set("dune_cache_3", "{not json")

	if _, ok := c.Get(context.Background(), "dune_cache_3"); ok {
		t.Error("Get should miss for corrupt entry")
	}
}

func TestSetOverwrites(t *testing.T) {
	c, mr := setupTestCache(t)
	defer mr.Close()
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "dune_cache_4", "old")
	c.Set(ctx, "dune_cache_4", "new")

	raw, ok := c.Get(ctx, "dune_cache_4")
	if !ok {
		t.Fatal("Get should hit")
	}
	var got string
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != "new" {
		t.Errorf("value = %q, want %q (last write wins)", got, "new")
	}
}

func TestSetAfterRedisGone(t *testing.T) {
	c, mr := setupTestCache(t)
	defer c.Close()

	mr.Close()

	// Writes and reads against a dead backend must not panic or error;
	// they degrade to no-op and miss.
	ctx := context.Background()
	c.Set(ctx, "dune_cache_5", "x")
	if _, ok := c.Get(ctx, "dune_cache_5"); ok {
		t.Error("Get should miss when Redis is unreachable")
	}
}

func TestQueryKey(t *testing.T) {
	if got := QueryKey("6590984"); got != "dune_cache_6590984" {
		t.Errorf("QueryKey = %q, want %q", got, "dune_cache_6590984")
	}
}
