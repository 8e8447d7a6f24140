package contact

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter monta o mux público: o endpoint de contato (todos os métodos, o
// Gate decide) e o health check. Qualquer outra rota é 404 em texto puro.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/health", health).Methods(http.MethodGet)
	r.Handle(h.Gate.endpoint, h)
	r.NotFoundHandler = http.HandlerFunc(notFound)
	// health com outro método também é rota inexistente
	r.MethodNotAllowedHandler = http.HandlerFunc(notFound)
	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeOK(w)
}
