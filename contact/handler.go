package contact

import (
	"context"
	"errors"
	"net/http"
	"time"

	"contact-gateway/contact/domain"
	"contact-gateway/middleware/ratelimit"
	rldomain "contact-gateway/middleware/ratelimit/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Processor é o contrato de application.Pipeline.
type Processor interface {
	Process(ctx context.Context, caller rldomain.Key, raw map[string]any) domain.Result
}

// Handler atende o endpoint de contato.
type Handler struct {
	Gate     *Gate
	Pipeline Processor
	// Policy só alimenta os headers RateLimit-*.
	Policy  rldomain.Policy
	KeyFunc ratelimit.KeyFunc
	Logger  *zap.Logger
	Now     func() time.Time
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	w.Header().Set("X-Request-ID", reqID)
	log := h.logger().With(zap.String("request_id", reqID))

	switch h.Gate.Evaluate(r) {
	case GateNotFound:
		notFound(w, r)
		return
	case GatePreflight:
		h.Gate.WriteCORS(w, r)
		w.WriteHeader(http.StatusNoContent)
		return
	case GateMethodNotAllowed:
		h.Gate.WriteCORS(w, r)
		w.Header().Set("Allow", "POST, OPTIONS")
		writeError(w, http.StatusMethodNotAllowed, apiError{Code: CodeMethodNotAllowed, Message: "Use POST."})
		return
	case GateOriginForbidden:
		log.Debug("origin rejected", zap.String("origin", r.Header.Get("Origin")))
		writeError(w, http.StatusForbidden, apiError{Code: CodeCORSBlocked, Message: "Origin not allowed."})
		return
	}

	h.Gate.WriteCORS(w, r)

	raw, err := h.Gate.DecodeBody(w, r)
	if err != nil {
		if errors.Is(err, domain.ErrBodyTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, apiError{Code: CodePayloadTooLarge, Message: "Request body too large."})
			return
		}
		writeError(w, http.StatusBadRequest, apiError{Code: CodeBadJSON, Message: "Invalid JSON body."})
		return
	}

	caller := h.caller(r)
	res := h.Pipeline.Process(r.Context(), caller, raw)

	log.Info("contact submission handled",
		zap.String("caller", string(caller)),
		zap.Stringer("outcome", res.Outcome))

	switch res.Outcome {
	case domain.OutcomeInvalid:
		writeError(w, http.StatusBadRequest, apiError{
			Code:        CodeValidationError,
			Message:     "Please check the form and try again.",
			FieldErrors: res.FieldErrors,
		})
	case domain.OutcomeRateLimited:
		// headers de limite só aqui: no sucesso eles denunciariam o honeypot
		ratelimit.WriteHeaders(w, h.Policy, res.Limit, h.now())
		w.Header().Set("Cache-Control", "no-store")
		writeError(w, http.StatusTooManyRequests, apiError{
			Code:    CodeRateLimited,
			Message: "Too many requests. Please try again later.",
			ResetAt: res.Limit.ResetAt.UnixMilli(),
		})
	case domain.OutcomeUnconfigured:
		w.Header().Set("Cache-Control", "no-store")
		writeError(w, http.StatusInternalServerError, apiError{Code: CodeServerNotConfigured, Message: "Email server is not configured."})
	case domain.OutcomeSendFailed:
		w.Header().Set("Cache-Control", "no-store")
		writeError(w, http.StatusInternalServerError, apiError{Code: CodeSendFailed, Message: "Failed to send message."})
	default:
		// Sent e Suppressed: respostas idênticas
		w.Header().Set("Cache-Control", "no-store")
		writeOK(w)
	}
}

func (h *Handler) caller(r *http.Request) rldomain.Key {
	if h.KeyFunc == nil {
		return ratelimit.DefaultKeyFunc()(r)
	}
	return h.KeyFunc(r)
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
