package infra

import (
	"context"
	"os"
	"testing"
	"time"

	"contact-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skipf("Redis not available, skipping test: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisStore_Contract(t *testing.T) {
	rdb := testRedisClient(t)
	testRateStore(t, NewRedisStore(rdb, WithRedisPrefix("test:ratelimit")))
}

func TestRedisStore_SetsExpiry(t *testing.T) {
	rdb := testRedisClient(t)
	s := NewRedisStore(rdb, WithRedisPrefix("test:ratelimit:"))
	key := domain.WindowKey{Caller: "ttl-check", Index: time.Now().UnixNano()}

	_, err := s.Hit(context.Background(), key, time.Now(), 90*time.Second)
	require.NoError(t, err)

	ttl, err := rdb.PTTL(context.Background(), "test:ratelimit:"+key.String()).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 80*time.Second)
	assert.LessOrEqual(t, ttl, 90*time.Second)
}

func TestRedisStatsStore_Record(t *testing.T) {
	rdb := testRedisClient(t)
	prefix := "test:stats:" + time.Now().Format("150405.000000")
	s := NewRedisStatsStore(rdb, WithStatsPrefix(prefix), WithStatsTrackKeys(true))

	ctx := context.Background()
	require.NoError(t, s.Record(ctx, domain.StatsEvent{Key: "1.2.3.4", Outcome: "sent"}))
	require.NoError(t, s.Record(ctx, domain.StatsEvent{Key: "1.2.3.4", Outcome: "sent"}))
	require.NoError(t, s.Record(ctx, domain.StatsEvent{Key: "1.2.3.4", Outcome: "rate_limited"}))

	total, err := s.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"sent": 2, "rate_limited": 1}, total)

	perKey, err := rdb.HGet(ctx, prefix+":key:1.2.3.4", "sent").Result()
	require.NoError(t, err)
	assert.Equal(t, "2", perKey)
}
