package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	appsims "github.com/preston-bernstein/league-sim-service/internal/app/simulations"
	appstandings "github.com/preston-bernstein/league-sim-service/internal/app/standings"
	domainsims "github.com/preston-bernstein/league-sim-service/internal/domain/simulations"
	"github.com/preston-bernstein/league-sim-service/internal/http/middleware"
	"github.com/preston-bernstein/league-sim-service/internal/logging"
	"github.com/preston-bernstein/league-sim-service/internal/snapshots"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error(logger, "failed to encode response", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, logger *slog.Logger) {
	reqID := middleware.RequestIDFromContext(r.Context())
	if reqID == "" {
		reqID = r.Header.Get("X-Request-ID")
	}
	body := map[string]string{"error": message}
	if reqID != "" {
		body["requestId"] = reqID
	}
	writeJSON(w, status, body, logger)
}

// writeServiceError maps service errors to status codes. Unexpected errors are logged and hidden.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.Error(logger, "request failed", err)
	}
	writeError(w, r, status, message, logger)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domainsims.ErrInvalidRequest), snapshots.IsValidationError(err):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, appsims.ErrNotFound):
		return http.StatusNotFound, "simulation run not found"
	case errors.Is(err, appsims.ErrHistoryDisabled):
		return http.StatusNotFound, "simulation history disabled"
	case errors.Is(err, appsims.ErrNoData), errors.Is(err, appstandings.ErrNoData):
		return http.StatusServiceUnavailable, "league data not loaded"
	case errors.Is(err, appsims.ErrGridNotReady):
		return http.StatusServiceUnavailable, "position grid not computed yet"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "simulation cancelled"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string, logger *slog.Logger) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed", logger)
	return false
}

func loggerFromContext(r *http.Request, fallback *slog.Logger) *slog.Logger {
	if r == nil {
		return fallback
	}
	return logging.FromContext(r.Context(), fallback)
}

func decodeJSON(r *http.Request, dest any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}
