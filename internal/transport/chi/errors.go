package chi

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

// Stable machine-readable error codes returned in ErrorResponse.Code.
const (
	codeBadRequest    = "bad_request"
	codeUnauthorized  = "unauthorized"
	codeNotFound      = "not_found"
	codeQuotaExceeded = "quota_exceeded"
	codeUpstreamError = "upstream_error"
	codeTimeout       = "timeout"
	codeUnavailable   = "unavailable"
	codeInternalError = "internal_error"
)

// ErrorResponse is the uniform error body for every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler inspects an error and, if it recognizes it, writes the
// response and reports true.
type errorHandler func(w http.ResponseWriter, err error) bool

// sentinelHandler maps one domain sentinel to a status and code.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if errors.Is(err, sentinel) {
			writeError(w, status, code, safeDomainMessage(err))
			return true
		}
		return false
	}
}

// domainErrorHandlers is ordered: more specific sentinels first, so a
// timeout inside a conversion maps to 504 rather than 502.
func domainErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrInvalidAction, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrProfileNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, codeQuotaExceeded),
		sentinelHandler(domain.ErrTimeout, http.StatusGatewayTimeout, codeTimeout),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeUpstreamError),
		sentinelHandler(domain.ErrConversion, http.StatusBadGateway, codeUpstreamError),
		sentinelHandler(domain.ErrStore, http.StatusServiceUnavailable, codeUnavailable),
		sentinelHandler(domain.ErrSearch, http.StatusServiceUnavailable, codeUnavailable),
	}
}

// handleDomainError walks the sentinel chain and falls back to 500.
// Unrecognized errors are logged; their text never reaches the client.
func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("Unhandled error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal server error")
}

// safeDomainMessage returns the sentinel's own message for known domain
// errors. Wrapped detail may carry internal key names or provider output,
// so only the whitelisted sentinel text is exposed.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidAction,
		domain.ErrProfileNotFound,
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrTimeout,
		domain.ErrEmbeddingProviderError,
		domain.ErrConversion,
		domain.ErrStore,
		domain.ErrSearch,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal server error"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
