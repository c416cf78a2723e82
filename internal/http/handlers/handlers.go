package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	appsims "github.com/preston-bernstein/league-sim-service/internal/app/simulations"
	appstandings "github.com/preston-bernstein/league-sim-service/internal/app/standings"
	domainsims "github.com/preston-bernstein/league-sim-service/internal/domain/simulations"
	"github.com/preston-bernstein/league-sim-service/internal/reloader"
)

// Handler wires HTTP routes to the simulation and league services.
type Handler struct {
	sims     *appsims.Service
	league   *appstandings.Service
	logger   *slog.Logger
	statusFn func() reloader.Status
	pages    *pages
	upgrader websocket.Upgrader
}

// NewHandler constructs a Handler. statusFn may be nil when no reloader runs.
func NewHandler(sims *appsims.Service, league *appstandings.Service, logger *slog.Logger, statusFn func() reloader.Status) *Handler {
	return &Handler{
		sims:     sims,
		league:   league,
		logger:   logger,
		statusFn: statusFn,
		pages:    newPages(),
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 4096},
	}
}

// Health reports the service health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	if err := r.Context().Err(); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "shutting down", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// Ready reports readiness for traffic: data has loaded and reloads are not failing repeatedly.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	if h.statusFn == nil {
		if h.league.Version() == "" {
			writeError(w, r, http.StatusServiceUnavailable, "league data not loaded", h.logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "version": h.league.Version()}, h.logger)
		return
	}
	status := h.statusFn()
	if status.IsReady() {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "version": status.Version, "lastSuccess": status.LastSuccess}, h.logger)
		return
	}
	msg := status.LastError
	if msg == "" {
		msg = "not ready"
	}
	writeError(w, r, http.StatusServiceUnavailable, msg, h.logger)
}

// Standings returns the current league table.
func (h *Handler) Standings(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	table, err := h.league.Standings()
	if err != nil {
		writeServiceError(w, r, err, loggerFromContext(r, h.logger))
		return
	}
	writeJSON(w, http.StatusOK, table, h.logger)
}

// Fixtures returns the remaining fixtures, optionally filtered by ?team=.
func (h *Handler) Fixtures(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	list, err := h.league.Fixtures(strings.TrimSpace(r.URL.Query().Get("team")))
	if err != nil {
		writeServiceError(w, r, err, loggerFromContext(r, h.logger))
		return
	}
	writeJSON(w, http.StatusOK, list, h.logger)
}

// CreateSimulation runs a simulation from a JSON request body.
func (h *Handler) CreateSimulation(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost, h.logger) {
		return
	}
	logger := loggerFromContext(r, h.logger)
	var req domainsims.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", logger)
		return
	}
	result, err := h.sims.Simulate(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, logger)
		return
	}
	writeJSON(w, http.StatusOK, result, logger)
}

// ListSimulations returns recent runs, newest first.
func (h *Handler) ListSimulations(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer", h.logger)
			return
		}
		limit = n
	}
	runs, err := h.sims.History(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err, loggerFromContext(r, h.logger))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs}, h.logger)
}

// SimulationByID returns a single persisted run.
func (h *Handler) SimulationByID(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" || strings.ContainsAny(id, " \t/") {
		writeError(w, r, http.StatusBadRequest, "invalid simulation id", h.logger)
		return
	}
	run, err := h.sims.Run(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, loggerFromContext(r, h.logger))
		return
	}
	writeJSON(w, http.StatusOK, run, h.logger)
}

// Odds returns the precomputed finishing-position grid.
func (h *Handler) Odds(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	grid, err := h.sims.Grid()
	if err != nil {
		writeServiceError(w, r, err, loggerFromContext(r, h.logger))
		return
	}
	writeJSON(w, http.StatusOK, grid, h.logger)
}
