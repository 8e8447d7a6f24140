package domain

import (
	"context"
	"time"
)

// StatsEvent representa o desfecho de uma submissão.
//
// Outcome é uma string curta e de baixa cardinalidade ("sent", "rate_limited",
// "suppressed", ...). Não carrega conteúdo da submissão.
//
// Observação: cuidado com cardinalidade ao salvar Key (ex.: uma série por IP
// pode explodir o número de chaves em uma base como Redis/Prometheus).
type StatsEvent struct {
	Key     Key
	Outcome string

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas.
//
// Implementações podem armazenar em Redis, Prometheus, memória, etc.
// Quem chama deve tratar erro como best-effort (não derrubar request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
