package infra

import (
	"golang.org/x/time/rate"
)

// NewThrottle cria um token bucket global (golang.org/x/time/rate) para proteger
// o canal de saída de rajadas. rps <= 0 desliga o throttle (retorna nil).
func NewThrottle(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
