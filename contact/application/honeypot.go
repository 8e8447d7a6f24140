package application

import (
	"strings"

	"contact-gateway/contact/domain"
)

type Verdict int

const (
	Genuine Verdict = iota
	SuspectedBot
)

// Honeypot olha o campo escondido do formulário: humano não vê, bot preenche.
type Honeypot struct{}

func (Honeypot) Check(s domain.Submission) Verdict {
	if strings.TrimSpace(s.Honeypot) != "" {
		return SuspectedBot
	}
	return Genuine
}
