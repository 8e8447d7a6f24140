package application

import (
	"context"
	"time"

	"contact-gateway/middleware/ratelimit/domain"
)

// Admission é o resultado da disputa por uma vaga de processamento.
type Admission int

const (
	Admitted Admission = iota
	// Shed: o servidor está cheio e a espera estourou AcquireTimeout.
	Shed
	// Abandoned: o próprio cliente desistiu (ctx da requisição cancelado)
	// antes de conseguir vaga; não há a quem responder.
	Abandoned
)

// ConcurrencyService limita o trabalho simultâneo do endpoint de contato.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire espera por uma vaga. Com AcquireTimeout <= 0 a espera só termina
// quando o ctx da requisição encerrar. Release só é válido com Admitted.
func (s ConcurrencyService) Acquire(ctx context.Context) (release func(), adm Admission) {
	if s.Pool == nil {
		return func() {}, Admitted
	}

	waitCtx := ctx
	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}

	release, ok := s.Pool.Acquire(waitCtx)
	switch {
	case ok:
		return release, Admitted
	case ctx.Err() != nil:
		return nil, Abandoned
	default:
		return nil, Shed
	}
}
