package ratelimit

import (
	"net/http"
	"time"

	"contact-gateway/middleware/ratelimit/application"
	"contact-gateway/middleware/ratelimit/domain"
	"contact-gateway/middleware/ratelimit/infra"
)

type ConcurrencyOptions struct {
	// Max <= 0 desliga o limite (a não ser que Pool seja informado).
	Max int
	// Pool substitui o semáforo interno; útil para expor a ocupação em métricas.
	Pool           domain.SlotPool
	RejectStatus   int
	AcquireTimeout time.Duration
	// OnReject é chamado (se não nil) no lugar da resposta padrão em texto.
	OnReject http.HandlerFunc
}

// ConcurrencyMiddleware limita quantas requisições ficam em processamento ao
// mesmo tempo. Quem não consegue vaga dentro de AcquireTimeout recebe
// RejectStatus (503 por padrão) com Retry-After: 1. Se o cliente desistir
// enquanto espera, nada é escrito.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	pool := opts.Pool
	if pool == nil {
		if opts.Max <= 0 {
			return func(next http.Handler) http.Handler { return next }
		}
		pool = infra.NewChanPool(opts.Max)
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	svc := application.ConcurrencyService{Pool: pool, AcquireTimeout: opts.AcquireTimeout}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, adm := svc.Acquire(r.Context())
			switch adm {
			case application.Abandoned:
				return
			case application.Shed:
				if opts.OnReject != nil {
					opts.OnReject(w, r)
					return
				}
				w.Header().Set("Retry-After", "1")
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}
			defer release()
			next.ServeHTTP(w, r)
		})
	}
}
