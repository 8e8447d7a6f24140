// Package domain define os tipos do formulário de contato (Submission, FieldErrors,
// MailMessage), os desfechos do pipeline e os erros sentinela.
//
// Sem net/http e sem I/O.
package domain
