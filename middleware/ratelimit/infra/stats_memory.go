package infra

import (
	"context"
	"sync"

	"contact-gateway/middleware/ratelimit/domain"
)

// MemoryStatsStore conta desfechos em memória.
// Útil para testes e desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu        sync.Mutex
	byOutcome map[string]int64
	byKey     map[string]map[string]int64

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byOutcome: make(map[string]int64),
		byKey:     make(map[string]map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byOutcome[ev.Outcome]++
	if s.trackKeys {
		k := string(ev.Key)
		if s.byKey[k] == nil {
			s.byKey[k] = make(map[string]int64)
		}
		s.byKey[k][ev.Outcome]++
	}
	return nil
}

// Count devolve quantas vezes o desfecho foi registrado.
func (s *MemoryStatsStore) Count(outcome string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byOutcome[outcome]
}

func (s *MemoryStatsStore) ByOutcome() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.byOutcome))
	for k, v := range s.byOutcome {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByKey(key domain.Key) map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.byKey[string(key)]))
	for k, v := range s.byKey[string(key)] {
		out[k] = v
	}
	return out
}
