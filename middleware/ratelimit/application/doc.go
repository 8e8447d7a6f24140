// Package application contém os casos de uso (regras de aplicação) para rate limit
// por janela fixa e limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Check(ctx, key, policy) retorna uma Decision (allow/deny + resetAt).
package application
