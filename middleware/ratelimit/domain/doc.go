// Package domain define contratos e tipos de domínio para rate limit por janela fixa,
// estatísticas e concorrência.
//
// Este pacote não depende de net/http nem de implementações concretas.
// A intenção é permitir testes de unidade puros e desacoplar regras de negócio
// de detalhes de infraestrutura (Redis, memcached, SQL, memória).
package domain
