// Package application contém as regras do formulário de contato: validação,
// honeypot, montagem/envio da notificação e o pipeline que os ordena.
//
// Não conhece net/http; o adapter HTTP fica no pacote contact.
package application
