package ratelimit

import (
	"net"
	"net/http"
	"strings"

	"contact-gateway/middleware/ratelimit/domain"
)

// KeyFunc extrai a identidade do caller de uma requisição.
type KeyFunc func(r *http.Request) domain.Key

// DefaultKeyFunc resolve a identidade nesta ordem:
//
//  1. headers confiáveis, na ordem dada (ex: CF-Connecting-IP, X-Forwarded-For);
//     para listas separadas por vírgula usa o primeiro item (cliente original)
//  2. host de RemoteAddr
//  3. domain.UnknownKey
//
// Só passe headers que o proxy na frente do serviço sobrescreve; caso contrário
// o cliente escolhe a própria chave.
func DefaultKeyFunc(trustedHeaders ...string) KeyFunc {
	return func(r *http.Request) domain.Key {
		for _, h := range trustedHeaders {
			v := r.Header.Get(h)
			if v == "" {
				continue
			}
			if i := strings.IndexByte(v, ','); i >= 0 {
				v = v[:i]
			}
			if v = strings.TrimSpace(v); v != "" {
				return domain.Key(v)
			}
		}

		addr := strings.TrimSpace(r.RemoteAddr)
		host, _, err := net.SplitHostPort(addr)
		if err == nil && host != "" {
			return domain.Key(host)
		}
		if addr != "" {
			return domain.Key(addr)
		}
		return domain.UnknownKey
	}
}
