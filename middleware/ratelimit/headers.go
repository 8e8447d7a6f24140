package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"contact-gateway/middleware/ratelimit/domain"
)

// WriteHeaders traduz uma decisão para os headers RateLimit-* (draft IETF) e,
// quando bloqueado, Retry-After em segundos.
func WriteHeaders(w http.ResponseWriter, policy domain.Policy, dec domain.Decision, now time.Time) {
	reset := dec.RetryAfter(now)
	h := w.Header()
	h.Set("RateLimit-Limit", strconv.Itoa(policy.Max))
	h.Set("RateLimit-Remaining", strconv.Itoa(dec.Remaining))
	h.Set("RateLimit-Reset", strconv.Itoa(int(reset/time.Second)))
	if !dec.Allowed {
		h.Set("Retry-After", strconv.Itoa(int(reset/time.Second)))
	}
}
