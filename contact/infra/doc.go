// Package infra contém os transportes de e-mail (MailChannel) do formulário de
// contato: SMTP, API HTTP da Resend, um canal em memória e o circuit breaker que
// embrulha qualquer um deles.
package infra
