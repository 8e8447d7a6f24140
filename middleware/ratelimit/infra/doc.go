// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - MemoryStore: janela fixa em memória, com shards e janitor
//   - RedisStore / MemcacheStore / SQLStore: janela fixa compartilhada entre instâncias
//   - ChanPool: semáforo simples para limite de concorrência
//   - stats: contadores de desfecho em memória, Redis ou Prometheus
//   - NewThrottle: token bucket (golang.org/x/time/rate) para o canal de saída
package infra
