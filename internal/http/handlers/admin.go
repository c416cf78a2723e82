package handlers

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/preston-bernstein/league-sim-service/internal/domain/fixtures"
	"github.com/preston-bernstein/league-sim-service/internal/domain/standings"
	"github.com/preston-bernstein/league-sim-service/internal/http/requestutil"
	"github.com/preston-bernstein/league-sim-service/internal/logging"
	"github.com/preston-bernstein/league-sim-service/internal/snapshots"
)

// SnapshotWriter replaces the league data files.
type SnapshotWriter interface {
	Write(teams []standings.Team, list []fixtures.Fixture) (snapshots.Manifest, error)
}

// DataReloader forces a reload of the league data files.
type DataReloader interface {
	Reload(ctx context.Context) (bool, error)
}

// SnapshotPayload is the body accepted by the snapshot upload endpoint.
type SnapshotPayload struct {
	Standings []standings.Team   `json:"standings"`
	Fixtures  []fixtures.Fixture `json:"fixtures"`
}

// AdminHandler exposes admin-only endpoints for replacing and reloading league data.
type AdminHandler struct {
	writer   SnapshotWriter
	reloader DataReloader
	token    string
	logger   *slog.Logger
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(writer SnapshotWriter, reloader DataReloader, token string, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		writer:   writer,
		reloader: reloader,
		token:    token,
		logger:   logger,
	}
}

// WriteSnapshots validates and writes new standings and fixtures, then reloads them.
// Guarded by ADMIN_TOKEN; returns 401 if missing/invalid.
func (h *AdminHandler) WriteSnapshots(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	if h.writer == nil {
		writeError(w, r, http.StatusServiceUnavailable, "snapshot writer not configured", h.logger)
		return
	}

	logger := loggerFromContext(r, h.logger)
	var payload SnapshotPayload
	if err := decodeJSON(r, &payload); err != nil {
		logging.Warn(logger, "admin snapshot invalid body", slog.Any("err", err))
		writeError(w, r, http.StatusBadRequest, "invalid request body", logger)
		return
	}
	manifest, err := h.writer.Write(payload.Standings, payload.Fixtures)
	if err != nil {
		if snapshots.IsValidationError(err) {
			writeError(w, r, http.StatusBadRequest, err.Error(), logger)
			return
		}
		logging.Error(logger, "admin snapshot write failed", err)
		writeError(w, r, http.StatusInternalServerError, "failed to write snapshot", logger)
		return
	}

	changed, reloadErr := h.reload(r.Context())
	body := map[string]any{
		"status":   "ok",
		"version":  manifest.Version,
		"teams":    manifest.Teams,
		"fixtures": manifest.Fixtures,
		"reloaded": changed,
	}
	if reloadErr != nil {
		logging.Error(logger, "admin reload after write failed", reloadErr)
		body["status"] = "written"
		body["reloadError"] = reloadErr.Error()
	}
	writeJSON(w, http.StatusOK, body, logger)
	logging.Info(logger, "admin snapshot written",
		slog.String(logging.FieldSnapshot, manifest.Version),
		slog.Int("teams", manifest.Teams),
		slog.Int("fixtures", manifest.Fixtures),
	)
}

// Reload re-reads the data files now instead of waiting for the next tick.
func (h *AdminHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	logger := loggerFromContext(r, h.logger)
	changed, err := h.reload(r.Context())
	if err != nil {
		if snapshots.IsValidationError(err) {
			writeError(w, r, http.StatusUnprocessableEntity, err.Error(), logger)
			return
		}
		logging.Error(logger, "admin reload failed", err)
		writeError(w, r, http.StatusInternalServerError, "reload failed", logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "changed": changed}, logger)
}

func (h *AdminHandler) guard(w http.ResponseWriter, r *http.Request) bool {
	if !requireMethod(w, r, http.MethodPost, h.logger) {
		return false
	}
	if !h.authorize(r) {
		logging.Warn(h.logger, "admin unauthorized",
			slog.String(logging.FieldPath, r.URL.Path),
			slog.String("client_ip", requestutil.ClientIP(r)),
		)
		writeError(w, r, http.StatusUnauthorized, "unauthorized", h.logger)
		return false
	}
	return true
}

func (h *AdminHandler) reload(ctx context.Context) (bool, error) {
	if h.reloader == nil {
		return false, nil
	}
	return h.reloader.Reload(ctx)
}

func (h *AdminHandler) authorize(r *http.Request) bool {
	if h.token == "" {
		return false
	}
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) == 1
}
