package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"insighthub/internal/core"
	"insighthub/internal/log"
	"insighthub/internal/middleware/trace"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	// the status line is already out; a failed write only means the client left
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps service errors onto HTTP statuses: caller mistakes are
// 400, invalid upstream records 422 and every other failure 502.
func statusFor(err error) int {
	var verr *core.ValidationError
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, core.ErrInvalidPeriod):
		return http.StatusBadRequest
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusBadGateway {
		// upstream details stay in the logs
		msg = "data source unavailable"
	}
	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, log.ComponentHTTP, log.OpReport,
			log.NewFields().WithRequestID(trace.GetRequestID(r.Context())))
	} else {
		logger.WarnContext(r.Context(), "Rejected request", log.FieldPath, r.URL.Path, log.FieldError, err)
	}
	writeJSON(w, status, errorResponse{Error: msg, RequestID: trace.GetRequestID(r.Context())})
}
