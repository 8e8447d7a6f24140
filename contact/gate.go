package contact

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"contact-gateway/contact/domain"
)

const (
	DefaultEndpoint     = "/api/contact"
	DefaultMaxBodyBytes = 10 << 10
	DefaultCORSMaxAge   = 600 * time.Second
)

type GateResult int

const (
	GateProceed GateResult = iota
	GatePreflight
	GateNotFound
	GateMethodNotAllowed
	GateOriginForbidden
)

type GateConfig struct {
	Endpoint string
	// AllowedOrigins vazio = nenhuma origem permitida.
	AllowedOrigins []string
	MaxAge         time.Duration
	MaxBodyBytes   int64
}

// Gate decide se a requisição chega na lógica de negócio.
type Gate struct {
	endpoint string
	origins  map[string]struct{}
	maxAge   string
	maxBody  int64
}

func NewGate(cfg GateConfig) *Gate {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultCORSMaxAge
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	origins := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = struct{}{}
		}
	}

	return &Gate{
		endpoint: cfg.Endpoint,
		origins:  origins,
		maxAge:   strconv.Itoa(int(cfg.MaxAge / time.Second)),
		maxBody:  cfg.MaxBodyBytes,
	}
}

// Evaluate roda na ordem: rota → preflight → método → origem.
// O corpo é checado depois, por DecodeBody.
func (g *Gate) Evaluate(r *http.Request) GateResult {
	if r.URL.Path != g.endpoint {
		return GateNotFound
	}
	if r.Method == http.MethodOptions {
		return GatePreflight
	}
	if r.Method != http.MethodPost {
		return GateMethodNotAllowed
	}
	if !g.OriginAllowed(r.Header.Get("Origin")) {
		return GateOriginForbidden
	}
	return GateProceed
}

func (g *Gate) OriginAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	_, ok := g.origins[origin]
	return ok
}

// WriteCORS anexa os headers de permissão se a origem estiver na allow-list.
// Retorna false (sem tocar em nada) caso contrário.
func (g *Gate) WriteCORS(w http.ResponseWriter, r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if !g.OriginAllowed(origin) {
		return false
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", origin)
	h.Add("Vary", "Origin")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Max-Age", g.maxAge)
	return true
}

// DecodeBody lê o corpo (limitado a MaxBodyBytes) como um objeto JSON.
// Números ficam como json.Number para o validator converter sem perder texto.
func (g *Gate) DecodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	body := http.MaxBytesReader(w, r.Body, g.maxBody)
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.ErrBodyTooLarge
		}
		return nil, domain.ErrMalformedBody
	}
	// null decodifica sem erro para um map nil
	if raw == nil {
		return nil, domain.ErrMalformedBody
	}
	// lixo depois do objeto também é corpo inválido
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.ErrBodyTooLarge
		}
		return nil, domain.ErrMalformedBody
	}
	return raw, nil
}
