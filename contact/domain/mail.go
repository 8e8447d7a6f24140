package domain

import (
	"context"
	"errors"
)

// MailMessage é a notificação derivada de uma Submission. Campos de header já
// vêm sem CR/LF; HTML já vem escapado.
type MailMessage struct {
	FromName  string
	FromEmail string
	To        string
	ReplyTo   string
	Subject   string
	Text      string
	HTML      string
}

// From no formato "Nome <email>".
func (m MailMessage) From() string {
	if m.FromName == "" {
		return m.FromEmail
	}
	return m.FromName + " <" + m.FromEmail + ">"
}

// MailChannel entrega uma mensagem por um único transporte (SMTP, API HTTP, ...).
//
// Implementações devem devolver um erro que satisfaça errors.Is(err,
// ErrMailUnconfigured) quando faltam credenciais; qualquer outro erro é tratado
// como falha de envio.
type MailChannel interface {
	Send(ctx context.Context, msg MailMessage) error
}

var (
	ErrMailUnconfigured = errors.New("mail channel not configured")
	ErrMailSendFailed   = errors.New("mail send failed")
)
