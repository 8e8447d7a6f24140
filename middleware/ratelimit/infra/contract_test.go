package infra

import (
	"context"
	"sync"
	"testing"
	"time"

	"contact-gateway/middleware/ratelimit/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRateStore roda o mesmo contrato contra qualquer backend.
func testRateStore(t *testing.T, store domain.RateStore) {
	t.Helper()
	ctx := context.Background()
	resetAt := time.Unix(1_700_000_000, 0)

	t.Run("counts sequential hits and keeps resetAt", func(t *testing.T) {
		key := domain.WindowKey{Caller: domain.Key("seq-" + uuid.NewString()), Index: 7}
		for i := int64(1); i <= 4; i++ {
			rec, err := store.Hit(ctx, key, resetAt, time.Minute)
			require.NoError(t, err)
			assert.Equal(t, i, rec.Count)
			assert.True(t, rec.ResetAt.Equal(resetAt), "resetAt=%s", rec.ResetAt)
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		caller := domain.Key("ind-" + uuid.NewString())
		a := domain.WindowKey{Caller: caller, Index: 1}
		b := domain.WindowKey{Caller: caller, Index: 2}

		_, err := store.Hit(ctx, a, resetAt, time.Minute)
		require.NoError(t, err)
		_, err = store.Hit(ctx, a, resetAt, time.Minute)
		require.NoError(t, err)

		rec, err := store.Hit(ctx, b, resetAt, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rec.Count)
	})

	t.Run("concurrent hits are not lost", func(t *testing.T) {
		key := domain.WindowKey{Caller: domain.Key("conc-" + uuid.NewString()), Index: 3}
		const n = 50

		var wg sync.WaitGroup
		errs := make(chan error, n)
		seen := make(chan int64, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec, err := store.Hit(ctx, key, resetAt, time.Minute)
				if err != nil {
					errs <- err
					return
				}
				seen <- rec.Count
			}()
		}
		wg.Wait()
		close(errs)
		close(seen)

		for err := range errs {
			require.NoError(t, err)
		}
		counts := make(map[int64]bool, n)
		for c := range seen {
			assert.False(t, counts[c], "count %d returned twice", c)
			counts[c] = true
		}
		assert.Len(t, counts, n)

		rec, err := store.Hit(ctx, key, resetAt, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(n+1), rec.Count)
	})
}
