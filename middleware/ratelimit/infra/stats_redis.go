package infra

import (
	"context"
	"strconv"
	"strings"
	"time"

	"contact-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// layouts dos buckets de série temporal; "none" desliga a série.
var statsBuckets = map[string]string{
	"minute": "200601021504",
	"hour":   "2006010215",
}

// RedisStatsStore conta desfechos em hashes do Redis:
//
//	<prefix>:total                 outcome -> n (cumulativo, sem TTL)
//	<prefix>:<bucket>:<instante>   outcome -> n (expira em ttl)
//	<prefix>:key:<caller>          outcome -> n (opcional, expira em ttl)
type RedisStatsStore struct {
	rdb       redis.UniversalClient
	prefix    string
	ttl       time.Duration
	bucket    string
	trackKeys bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.prefix = p
		}
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

// WithStatsBucket aceita "minute", "hour" ou "none".
func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

// WithStatsTrackKeys liga o hash por caller. Uma chave por IP: cuidado com volume.
func WithStatsTrackKeys(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackKeys = track }
}

func NewRedisStatsStore(rdb redis.UniversalClient, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "contact:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	outcome := strings.TrimSpace(ev.Outcome)
	if outcome == "" {
		outcome = "unknown"
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, s.prefix+":total", outcome, 1)

		if layout, ok := statsBuckets[s.bucket]; ok {
			s.incrExpiring(ctx, pipe, s.prefix+":"+s.bucket+":"+at.UTC().Format(layout), outcome)
		}
		if caller := strings.TrimSpace(string(ev.Key)); s.trackKeys && caller != "" {
			s.incrExpiring(ctx, pipe, s.prefix+":key:"+caller, outcome)
		}
		return nil
	})
	return err
}

func (s *RedisStatsStore) incrExpiring(ctx context.Context, pipe redis.Pipeliner, key, outcome string) {
	pipe.HIncrBy(ctx, key, outcome, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
}

// Totals lê o contador cumulativo por desfecho.
func (s *RedisStatsStore) Totals(ctx context.Context) (map[string]int64, error) {
	raw, err := s.rdb.HGetAll(ctx, s.prefix+":total").Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for outcome, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, err
		}
		out[outcome] = n
	}
	return out, nil
}
