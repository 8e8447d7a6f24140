package contact

import (
	"encoding/json"
	"net/http"
)

// Códigos de erro expostos no JSON.
const (
	CodeCORSBlocked         = "CORS_BLOCKED"
	CodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	CodeBadJSON             = "BAD_JSON"
	CodePayloadTooLarge     = "PAYLOAD_TOO_LARGE"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeRateLimited         = "RATE_LIMITED"
	CodeServerNotConfigured = "SERVER_NOT_CONFIGURED"
	CodeSendFailed          = "SEND_FAILED"
)

type apiError struct {
	Code        string            `json:"code"`
	Message     string            `json:"message,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
	// ResetAt em milissegundos desde a época.
	ResetAt int64 `json:"resetAt,omitempty"`
}

type apiResponse struct {
	OK    bool      `json:"ok"`
	Error *apiError `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, apiResponse{OK: true})
}

func writeError(w http.ResponseWriter, status int, e apiError) {
	writeJSON(w, status, apiResponse{Error: &e})
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "Not found", http.StatusNotFound)
}
