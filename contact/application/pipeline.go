package application

import (
	"context"
	"errors"
	"time"

	"contact-gateway/contact/domain"
	rldomain "contact-gateway/middleware/ratelimit/domain"

	"go.uber.org/zap"
)

// RateChecker é o contrato do rate limiter (ratelimit/application.Service).
type RateChecker interface {
	Check(ctx context.Context, caller rldomain.Key, policy rldomain.Policy) (rldomain.Decision, error)
}

// Sender é o contrato do Dispatcher.
type Sender interface {
	Send(ctx context.Context, s domain.Submission) error
}

// Pipeline orquestra validação → honeypot → rate limit → envio.
//
// A ordem importa: bot não consome orçamento do rate limit e caller bloqueado
// não gasta chamada de e-mail. O gate HTTP (origem/método/corpo) roda antes,
// no adapter.
type Pipeline struct {
	Validator *Validator
	Honeypot  Honeypot
	Limiter   RateChecker
	Policy    rldomain.Policy
	Mailer    Sender
	// Stats é opcional e best-effort.
	Stats  rldomain.StatsStore
	Logger *zap.Logger
}

func (p *Pipeline) Process(ctx context.Context, caller rldomain.Key, raw map[string]any) domain.Result {
	res := p.process(ctx, caller, raw)
	p.record(ctx, caller, res.Outcome)
	return res
}

func (p *Pipeline) process(ctx context.Context, caller rldomain.Key, raw map[string]any) domain.Result {
	log := p.logger().With(zap.String("caller", string(caller)))

	sub, fieldErrs := p.Validator.Validate(raw)
	if !fieldErrs.Valid() {
		log.Debug("submission rejected by validation", zap.Int("fields", len(fieldErrs)))
		return domain.Result{Outcome: domain.OutcomeInvalid, FieldErrors: fieldErrs}
	}

	if p.Honeypot.Check(sub) == SuspectedBot {
		log.Debug("honeypot filled, dropping submission silently")
		return domain.Result{Outcome: domain.OutcomeSuppressed}
	}

	dec, err := p.Limiter.Check(ctx, caller, p.Policy)
	if err != nil {
		// fail-open: uma falha do store não pode derrubar o formulário
		log.Error("rate limit check failed, allowing request", zap.Error(err))
		dec = rldomain.Decision{Allowed: true}
	}
	if !dec.Allowed {
		log.Info("submission rate limited",
			zap.Int64("count", dec.Count),
			zap.Time("reset_at", dec.ResetAt))
		return domain.Result{Outcome: domain.OutcomeRateLimited, Limit: dec}
	}

	if err := p.Mailer.Send(ctx, sub); err != nil {
		if errors.Is(err, domain.ErrMailUnconfigured) {
			log.Error("mail channel not configured", zap.Error(err))
			return domain.Result{Outcome: domain.OutcomeUnconfigured, Limit: dec, Err: err}
		}
		log.Error("contact mail send failed", zap.Error(err))
		return domain.Result{Outcome: domain.OutcomeSendFailed, Limit: dec, Err: err}
	}

	log.Info("contact mail sent", zap.Int("remaining", dec.Remaining))
	return domain.Result{Outcome: domain.OutcomeSent, Limit: dec}
}

func (p *Pipeline) record(ctx context.Context, caller rldomain.Key, outcome domain.Outcome) {
	if p.Stats == nil {
		return
	}
	err := p.Stats.Record(ctx, rldomain.StatsEvent{Key: caller, Outcome: outcome.String(), At: time.Now()})
	if err != nil {
		p.logger().Warn("stats record failed", zap.Error(err))
	}
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
