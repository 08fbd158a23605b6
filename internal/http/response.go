package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"igreja/internal/auth"
	"igreja/internal/core"
	"igreja/internal/log"
	"igreja/internal/middleware/trace"
	"igreja/internal/services"
)

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON sends v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps application errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCode),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrAdminDisabled):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrLeaderNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrLeaderExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidEdit),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrLedgerDegraded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError logs err and sends it as a JSON error body. Internal errors
// are not echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		log.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, log.ComponentHTTP, r.Method,
			log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", ""))
		msg = http.StatusText(status)
	} else {
		logger.WarnContext(r.Context(), "Request rejected", log.FieldError, err, log.FieldStatusCode, status)
	}
	writeJSON(w, status, errorBody{Error: msg, RequestID: trace.GetRequestID(r.Context())})
}
