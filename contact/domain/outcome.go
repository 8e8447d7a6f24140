package domain

import (
	"errors"

	rldomain "contact-gateway/middleware/ratelimit/domain"
)

// Outcome é o desfecho final de uma submissão que passou pelo gate HTTP.
type Outcome int

const (
	OutcomeSent Outcome = iota
	// OutcomeSuppressed: honeypot preenchido. Para o caller é igual a Sent.
	OutcomeSuppressed
	OutcomeInvalid
	OutcomeRateLimited
	OutcomeUnconfigured
	OutcomeSendFailed
)

var outcomeNames = [...]string{
	OutcomeSent:         "sent",
	OutcomeSuppressed:   "suppressed",
	OutcomeInvalid:      "invalid",
	OutcomeRateLimited:  "rate_limited",
	OutcomeUnconfigured: "unconfigured",
	OutcomeSendFailed:   "send_failed",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "unknown"
	}
	return outcomeNames[o]
}

// Result é o que o pipeline devolve para o adapter HTTP.
type Result struct {
	Outcome     Outcome
	FieldErrors FieldErrors
	// Limit é a decisão do rate limiter; zero quando o pipeline parou antes dele.
	Limit rldomain.Decision
	// Err guarda o detalhe interno de falhas de envio; vai para o log, nunca para o caller.
	Err error
}

// Erros do gate HTTP (TransportRejected).
var (
	ErrMalformedBody = errors.New("malformed body")
	ErrBodyTooLarge  = errors.New("body too large")
)
