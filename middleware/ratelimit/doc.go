// Package ratelimit fornece os adapters HTTP (net/http) do rate limit e do limite
// de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos (janela fixa, RateStore, stats) sem net/http
//   - application: casos de uso (Check allow/deny, acquire/timeout) sem net/http
//   - infra: implementações concretas (memória, Redis, memcached, SQL, semáforo)
//   - ratelimit (este pacote): extração da chave do caller, headers RateLimit-* e
//     middleware de concorrência
//
// O rate limit em si não é um middleware: o pipeline de contato chama
// application.Service depois da validação e do honeypot, para que tráfego de bot
// não consuma o orçamento dos usuários reais.
package ratelimit
