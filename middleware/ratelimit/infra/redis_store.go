package infra

import (
	"context"
	"strings"
	"time"

	"contact-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// hitScript faz INCR + PEXPIRE numa única operação atômica no servidor.
// Concorrência entre réplicas do processo fica a cargo do próprio Redis.
var hitScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
redis.call('PEXPIRE', KEYS[1], ARGV[1])
return count
`)

// RedisStore é um RateStore compartilhado entre instâncias.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

type RedisStoreOption func(*RedisStore)

func WithRedisPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) { s.prefix = strings.Trim(prefix, ":") }
}

func NewRedisStore(rdb redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{rdb: rdb, prefix: "ratelimit:window"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hit implementa domain.RateStore.
func (s *RedisStore) Hit(ctx context.Context, key domain.WindowKey, resetAt time.Time, ttl time.Duration) (domain.WindowRecord, error) {
	ms := ttl.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	count, err := hitScript.Run(ctx, s.rdb, []string{s.prefix + ":" + key.String()}, ms).Int64()
	if err != nil {
		return domain.WindowRecord{}, err
	}
	return domain.WindowRecord{Count: count, ResetAt: resetAt}, nil
}
