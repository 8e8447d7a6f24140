package infra

import (
	"context"
	"sync"
	"time"

	"contact-gateway/middleware/ratelimit/domain"

	"github.com/cespare/xxhash/v2"
)

const defaultShards = 64

// MemoryStore é um RateStore em memória, para o processo standalone e testes.
//
// Cada chave pertence a exatamente um shard (xxhash da chave); o shard serializa
// o read-increment-write das suas chaves, e chaves em shards diferentes não
// disputam o mesmo lock. Registros expirados são ignorados na leitura e removidos
// pelo janitor.
type MemoryStore struct {
	shards       []*memoryShard
	cleanupEvery time.Duration
	now          func() time.Time
}

type memoryShard struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	rec       domain.WindowRecord
	expiresAt time.Time
}

type StoreOption func(*MemoryStore)

func WithCleanupEvery(d time.Duration) StoreOption {
	return func(s *MemoryStore) { s.cleanupEvery = d }
}

func WithShards(n int) StoreOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.shards = newShards(n)
		}
	}
}

// WithClock troca o relógio usado para expiração (testes).
func WithClock(now func() time.Time) StoreOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		shards:       newShards(defaultShards),
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newShards(n int) []*memoryShard {
	out := make([]*memoryShard, n)
	for i := range out {
		out[i] = &memoryShard{entries: make(map[string]*memoryEntry)}
	}
	return out
}

func (s *MemoryStore) shard(key string) *memoryShard {
	return s.shards[xxhash.Sum64String(key)%uint64(len(s.shards))]
}

// Hit implementa domain.RateStore.
func (s *MemoryStore) Hit(_ context.Context, key domain.WindowKey, resetAt time.Time, ttl time.Duration) (domain.WindowRecord, error) {
	k := key.String()
	now := s.now()
	sh := s.shard(k)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	ent, ok := sh.entries[k]
	if !ok || !now.Before(ent.expiresAt) {
		ent = &memoryEntry{rec: domain.WindowRecord{ResetAt: resetAt}}
		sh.entries[k] = ent
	}
	ent.rec.Count++
	ent.expiresAt = now.Add(ttl)
	return ent.rec, nil
}

// Len devolve quantos registros (inclusive expirados ainda não limpos) existem.
func (s *MemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}

// Cleanup remove registros expirados.
func (s *MemoryStore) Cleanup() {
	now := s.now()
	for _, sh := range s.shards {
		sh.mu.Lock()
		for k, ent := range sh.entries {
			if !now.Before(ent.expiresAt) {
				delete(sh.entries, k)
			}
		}
		sh.mu.Unlock()
	}
}

// StartJanitor inicia uma goroutine que limpa janelas expiradas periodicamente.
// Pare cancelando o contexto.
func (s *MemoryStore) StartJanitor(ctx DoneContext) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context no janitor.
type DoneContext interface {
	Done() <-chan struct{}
}
