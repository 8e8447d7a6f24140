package infra

import (
	"context"
	"testing"
	"time"

	"contact-gateway/middleware/ratelimit/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	testRateStore(t, NewMemoryStore())
}

func TestMemoryStore_SingleShardStillSerializes(t *testing.T) {
	testRateStore(t, NewMemoryStore(WithShards(1)))
}

func TestMemoryStore_ExpiredRecordStartsOver(t *testing.T) {
	now := time.Unix(1000, 0)
	s := NewMemoryStore(WithClock(func() time.Time { return now }))
	key := domain.WindowKey{Caller: "k", Index: 1}

	_, err := s.Hit(context.Background(), key, now.Add(time.Minute), 10*time.Millisecond)
	require.NoError(t, err)

	now = now.Add(20 * time.Millisecond)
	rec, err := s.Hit(context.Background(), key, now.Add(time.Minute), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Count)
}

func TestMemoryStore_CleanupRemovesExpiredEntries(t *testing.T) {
	now := time.Unix(1000, 0)
	s := NewMemoryStore(WithClock(func() time.Time { return now }), WithCleanupEvery(0))

	_, err := s.Hit(context.Background(), domain.WindowKey{Caller: "old", Index: 1}, now, time.Second)
	require.NoError(t, err)
	_, err = s.Hit(context.Background(), domain.WindowKey{Caller: "new", Index: 1}, now, time.Hour)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())

	now = now.Add(2 * time.Second)
	s.Cleanup()
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_JanitorStopsWithContext(t *testing.T) {
	s := NewMemoryStore(WithCleanupEvery(time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	s.StartJanitor(ctx)

	_, err := s.Hit(context.Background(), domain.WindowKey{Caller: "k", Index: 1}, time.Now(), time.Nanosecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
}
