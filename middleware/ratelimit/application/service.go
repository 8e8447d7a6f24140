package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"contact-gateway/middleware/ratelimit/domain"
)

// DefaultGrace é quanto um registro sobrevive além da própria janela antes de expirar.
const DefaultGrace = 60 * time.Second

// Service concentra a regra de janela fixa.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Store domain.RateStore
	Grace time.Duration
	// Now permite relógio fixo nos testes. Se nil, usa time.Now.
	Now func() time.Time
}

// Check registra um hit de `caller` na janela corrente e decide se ele é permitido.
//
//  1. windowIndex = floor(now / window)
//  2. chave composta (caller, windowIndex)
//  3. Store.Hit faz load-or-init + incremento de forma atômica
//  4. allowed = count <= max; remaining = max(0, max-count)
//
// Caller vazio vira domain.UnknownKey (não existe bypass do limiter).
func (s Service) Check(ctx context.Context, caller domain.Key, policy domain.Policy) (domain.Decision, error) {
	if policy.Window <= 0 {
		return domain.Decision{}, fmt.Errorf("ratelimit: window must be > 0, got %s", policy.Window)
	}
	if s.Store == nil {
		return domain.Decision{Allowed: true, Remaining: policy.Max}, nil
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	grace := s.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}

	if strings.TrimSpace(string(caller)) == "" {
		caller = domain.UnknownKey
	}

	window := policy.Window
	index := now.UnixNano() / int64(window)
	key := domain.WindowKey{Caller: caller, Index: index}
	resetAt := time.Unix(0, (index+1)*int64(window))

	rec, err := s.Store.Hit(ctx, key, resetAt, window+grace)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("ratelimit: hit %s: %w", key, err)
	}
	if rec.ResetAt.IsZero() {
		rec.ResetAt = resetAt
	}

	remaining := policy.Max - int(rec.Count)
	if remaining < 0 {
		remaining = 0
	}
	return domain.Decision{
		Allowed:   rec.Count <= int64(policy.Max),
		Count:     rec.Count,
		Remaining: remaining,
		ResetAt:   rec.ResetAt,
	}, nil
}
