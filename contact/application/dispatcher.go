package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contact-gateway/contact/domain"
)

const DefaultMailTimeout = 10 * time.Second

// Throttle segura o envio até haver orçamento (ex: *rate.Limiter).
type Throttle interface {
	Wait(ctx context.Context) error
}

// Dispatcher monta a notificação e entrega por exatamente um MailChannel.
//
// Erros sempre satisfazem errors.Is com domain.ErrMailUnconfigured ou
// domain.ErrMailSendFailed. Não há retry.
type Dispatcher struct {
	Channel  domain.MailChannel
	Settings MailSettings
	Timeout  time.Duration
	Throttle Throttle
}

func (d *Dispatcher) Send(ctx context.Context, s domain.Submission) error {
	if d.Channel == nil {
		return fmt.Errorf("%w: no channel", domain.ErrMailUnconfigured)
	}
	if d.Settings.FromEmail == "" || d.Settings.To == "" {
		return fmt.Errorf("%w: sender or recipient missing", domain.ErrMailUnconfigured)
	}

	msg := BuildMessage(s, d.Settings)

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultMailTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if d.Throttle != nil {
		if err := d.Throttle.Wait(ctx); err != nil {
			return fmt.Errorf("%w: outbound throttle: %w", domain.ErrMailSendFailed, err)
		}
	}

	// o canal roda em goroutine para que um transporte que ignore ctx não
	// prenda a requisição além do timeout
	errc := make(chan error, 1)
	go func() { errc <- d.Channel.Send(ctx, msg) }()

	var err error
	select {
	case err = <-errc:
	case <-ctx.Done():
		err = ctx.Err()
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrMailUnconfigured), errors.Is(err, domain.ErrMailSendFailed):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrMailSendFailed, err)
	}
}
