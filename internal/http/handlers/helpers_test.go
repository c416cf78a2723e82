package handlers

import (
	"context"
	"net/http"
	"testing"

	appsims "github.com/preston-bernstein/league-sim-service/internal/app/simulations"
	appstandings "github.com/preston-bernstein/league-sim-service/internal/app/standings"
	"github.com/preston-bernstein/league-sim-service/internal/history"
	"github.com/preston-bernstein/league-sim-service/internal/reloader"
	"github.com/preston-bernstein/league-sim-service/internal/simulator"
	"github.com/preston-bernstein/league-sim-service/internal/store"
	"github.com/preston-bernstein/league-sim-service/internal/testutil"
)

type testEnv struct {
	handler *Handler
	sims    *appsims.Service
	store   *store.MemoryStore
}

type envOptions struct {
	empty     bool
	noHistory bool
	statusFn  func() reloader.Status
}

func newTestEnv(t *testing.T, opts envOptions) testEnv {
	t.Helper()
	mem := store.NewMemoryStore()
	if !opts.empty {
		mem.Replace(testutil.LeagueDataset(t))
	}
	var hist appsims.History
	if !opts.noHistory {
		h, err := history.Open(context.Background(), ":memory:")
		if err != nil {
			t.Fatalf("open history: %v", err)
		}
		t.Cleanup(func() { _ = h.Close() })
		hist = h
	}
	sims := appsims.NewService(mem, simulator.NewEngine(2, 100, 7), hist, nil, nil, appsims.Options{
		DefaultTrials: 400,
		MaxTrials:     5000,
		GridTrials:    400,
	})
	return testEnv{
		handler: NewHandler(sims, appstandings.NewService(mem), nil, opts.statusFn),
		sims:    sims,
		store:   mem,
	}
}

// mux mounts the handler the way the router does for path-value routes.
func (e testEnv) mux() http.Handler {
	m := http.NewServeMux()
	m.HandleFunc("/api/simulations/{id}", e.handler.SimulationByID)
	m.HandleFunc("/api/simulations", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			e.handler.CreateSimulation(w, r)
			return
		}
		e.handler.ListSimulations(w, r)
	})
	return m
}
