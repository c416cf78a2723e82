package http

import (
	nethttp "net/http"

	"github.com/preston-bernstein/league-sim-service/internal/http/handlers"
	"github.com/preston-bernstein/league-sim-service/internal/http/middleware"
)

// Routes groups what the router mounts. Admin and Limiter are optional.
type Routes struct {
	Handler *handlers.Handler
	Admin   *handlers.AdminHandler
	Limiter *middleware.RateLimiter
}

// NewRouter registers HTTP routes on a ServeMux. Simulation entry points are rate limited.
func NewRouter(routes Routes) nethttp.Handler {
	h := routes.Handler
	limited := func(fn nethttp.HandlerFunc) nethttp.Handler {
		return routes.Limiter.Wrap(fn)
	}

	mux := nethttp.NewServeMux()
	mux.HandleFunc("/{$}", h.Index)
	mux.Handle("/submit", limited(h.Submit))
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/ready", h.Ready)
	mux.HandleFunc("/api/standings", h.Standings)
	mux.HandleFunc("/api/fixtures", h.Fixtures)
	mux.HandleFunc("GET /api/simulations", h.ListSimulations)
	mux.Handle("POST /api/simulations", limited(h.CreateSimulation))
	mux.HandleFunc("/api/simulations/{id}", h.SimulationByID)
	mux.HandleFunc("/api/odds", h.Odds)
	mux.Handle("/ws/simulate", limited(h.SimulateStream))
	if routes.Admin != nil {
		mux.HandleFunc("/admin/snapshots", routes.Admin.WriteSnapshots)
		mux.HandleFunc("/admin/snapshots/reload", routes.Admin.Reload)
	}
	return mux
}
