package infra

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"contact-gateway/middleware/ratelimit/domain"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/cespare/xxhash/v2"
)

// limite do protocolo do memcached para chaves
const memcacheMaxKey = 250

// MemcacheStore é um RateStore sobre memcached.
//
// incr é atômico no servidor; o primeiro hit da janela cria a chave com add,
// que falha se outra requisição criou antes (nesse caso tenta o incr de novo).
type MemcacheStore struct {
	client *memcache.Client
	prefix string
}

func NewMemcacheStore(client *memcache.Client, prefix string) *MemcacheStore {
	if prefix == "" {
		prefix = "ratelimit:window"
	}
	return &MemcacheStore{client: client, prefix: strings.Trim(prefix, ":")}
}

// Hit implementa domain.RateStore.
func (s *MemcacheStore) Hit(ctx context.Context, key domain.WindowKey, resetAt time.Time, ttl time.Duration) (domain.WindowRecord, error) {
	k := s.itemKey(key)

	for attempt := 0; attempt < 2; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.WindowRecord{}, err
		}

		n, err := s.client.Increment(k, 1)
		if err == nil {
			return domain.WindowRecord{Count: int64(n), ResetAt: resetAt}, nil
		}
		if !errors.Is(err, memcache.ErrCacheMiss) {
			return domain.WindowRecord{}, err
		}

		err = s.client.Add(&memcache.Item{
			Key:        k,
			Value:      []byte("1"),
			Expiration: ttlSeconds(ttl),
		})
		if err == nil {
			return domain.WindowRecord{Count: 1, ResetAt: resetAt}, nil
		}
		if !errors.Is(err, memcache.ErrNotStored) {
			return domain.WindowRecord{}, err
		}
		// outra requisição criou a chave entre o incr e o add
	}
	return domain.WindowRecord{}, errors.New("memcache: could not create window counter")
}

func (s *MemcacheStore) itemKey(key domain.WindowKey) string {
	k := s.prefix + ":" + strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return '_'
		}
		return r
	}, key.String())
	if len(k) > memcacheMaxKey {
		k = s.prefix + ":h:" + strconv.FormatUint(xxhash.Sum64String(key.String()), 16)
	}
	return k
}

func ttlSeconds(ttl time.Duration) int32 {
	secs := int32((ttl + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
