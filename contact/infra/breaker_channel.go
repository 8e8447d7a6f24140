package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contact-gateway/contact/domain"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type BreakerSettings struct {
	Name string
	// MaxFailures falhas consecutivas abrem o circuito.
	MaxFailures uint32
	// OpenTimeout é quanto o circuito fica aberto antes de tentar half-open.
	OpenTimeout time.Duration
	// HalfOpenRequests chamadas liberadas no estado half-open.
	HalfOpenRequests uint32
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:             "mail",
		MaxFailures:      5,
		OpenTimeout:      30 * time.Second,
		HalfOpenRequests: 1,
	}
}

// BreakerChannel para de bater num transporte que está falhando. Com o
// circuito aberto o envio falha na hora, sem esperar o timeout do transporte.
type BreakerChannel struct {
	next domain.MailChannel
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerChannel(next domain.MailChannel, s BreakerSettings, logger *zap.Logger) *BreakerChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	if s.MaxFailures == 0 {
		s.MaxFailures = DefaultBreakerSettings().MaxFailures
	}
	maxFailures := s.MaxFailures

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.HalfOpenRequests,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("mail circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &BreakerChannel{next: next, cb: cb}
}

func (b *BreakerChannel) Send(ctx context.Context, msg domain.MailMessage) error {
	// falta de configuração não é falha do transporte: não conta para o circuito
	var unconfigured error
	_, err := b.cb.Execute(func() (interface{}, error) {
		err := b.next.Send(ctx, msg)
		if errors.Is(err, domain.ErrMailUnconfigured) {
			unconfigured = err
			return nil, nil
		}
		return nil, err
	})
	if unconfigured != nil {
		return unconfigured
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", domain.ErrMailSendFailed, err)
	}
	return err
}

func (b *BreakerChannel) State() gobreaker.State {
	return b.cb.State()
}
