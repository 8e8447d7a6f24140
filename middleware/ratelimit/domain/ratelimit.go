package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"strconv"
	"time"
)

// Key identifica quem está sendo limitado (normalmente o IP de origem).
type Key string

// UnknownKey é a identidade usada quando não dá para determinar a origem.
// Todo tráfego sem origem identificável divide o mesmo orçamento.
const UnknownKey Key = "unknown"

// Policy descreve a janela fixa: no máximo Max hits a cada Window.
type Policy struct {
	Window time.Duration
	Max    int
}

// WindowKey é a chave composta (caller, índice da janela).
type WindowKey struct {
	Caller Key
	Index  int64
}

// String é o formato usado por todos os backends: "<caller>:<index>".
func (k WindowKey) String() string {
	return string(k.Caller) + ":" + strconv.FormatInt(k.Index, 10)
}

// WindowRecord é o contador persistido de uma janela.
//
// Count só cresce dentro da janela; a "zerada" acontece ao mudar de índice,
// nunca por mutação.
type WindowRecord struct {
	Count   int64
	ResetAt time.Time
}

// RateStore persiste os contadores de janela.
//
// Hit deve, de forma atômica para a mesma chave: carregar o registro (ou criá-lo
// com Count=0 e o resetAt informado), incrementar Count e persistir com expiração
// em ttl. Retorna o registro já incrementado.
//
// Chamadas concorrentes para a mesma chave não podem perder incrementos.
// Chamadas para chaves diferentes não devem bloquear umas às outras.
type RateStore interface {
	Hit(ctx context.Context, key WindowKey, resetAt time.Time, ttl time.Duration) (WindowRecord, error)
}

// Decision é o resultado de uma checagem: Count já inclui o hit atual.
type Decision struct {
	Allowed   bool
	Count     int64
	Remaining int
	ResetAt   time.Time
}

// RetryAfter devolve quanto falta para a janela reiniciar, arredondado para cima
// em segundos (valor para o header Retry-After).
func (d Decision) RetryAfter(now time.Time) time.Duration {
	left := d.ResetAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return (left + time.Second - 1) / time.Second * time.Second
}
