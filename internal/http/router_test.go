package http

import (
	"context"
	nethttp "net/http"
	"strings"
	"testing"

	appsims "github.com/preston-bernstein/league-sim-service/internal/app/simulations"
	appstandings "github.com/preston-bernstein/league-sim-service/internal/app/standings"
	"github.com/preston-bernstein/league-sim-service/internal/http/handlers"
	"github.com/preston-bernstein/league-sim-service/internal/http/middleware"
	"github.com/preston-bernstein/league-sim-service/internal/simulator"
	"github.com/preston-bernstein/league-sim-service/internal/snapshots"
	"github.com/preston-bernstein/league-sim-service/internal/store"
	"github.com/preston-bernstein/league-sim-service/internal/testutil"
)

type noopReloader struct{}

func (noopReloader) Reload(context.Context) (bool, error) { return false, nil }

func newTestRouter(t *testing.T, withAdmin bool, limiter *middleware.RateLimiter) nethttp.Handler {
	t.Helper()
	mem := store.NewMemoryStore()
	mem.Replace(testutil.LeagueDataset(t))
	sims := appsims.NewService(mem, simulator.NewEngine(1, 50, 3), nil, nil, nil, appsims.Options{DefaultTrials: 100})
	routes := Routes{
		Handler: handlers.NewHandler(sims, appstandings.NewService(mem), nil, nil),
		Limiter: limiter,
	}
	if withAdmin {
		routes.Admin = handlers.NewAdminHandler(snapshots.NewWriter(t.TempDir()), noopReloader{}, "secret", nil)
	}
	return NewRouter(routes)
}

func TestRouterMountsRoutes(t *testing.T) {
	router := newTestRouter(t, false, nil)
	cases := []struct {
		method, path string
		want         int
	}{
		{nethttp.MethodGet, "/", nethttp.StatusOK},
		{nethttp.MethodGet, "/health", nethttp.StatusOK},
		{nethttp.MethodGet, "/ready", nethttp.StatusOK},
		{nethttp.MethodGet, "/api/standings", nethttp.StatusOK},
		{nethttp.MethodGet, "/api/fixtures", nethttp.StatusOK},
		{nethttp.MethodGet, "/api/odds", nethttp.StatusServiceUnavailable},
		{nethttp.MethodGet, "/api/simulations", nethttp.StatusNotFound},
		{nethttp.MethodDelete, "/api/simulations", nethttp.StatusMethodNotAllowed},
		{nethttp.MethodGet, "/api/simulations/abc", nethttp.StatusNotFound},
		{nethttp.MethodGet, "/nope", nethttp.StatusNotFound},
		{nethttp.MethodPost, "/admin/snapshots/reload", nethttp.StatusNotFound},
	}
	for _, tc := range cases {
		rr := testutil.Serve(router, tc.method, tc.path, nil)
		if rr.Code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, tc.want, rr.Code)
		}
	}

	rr := testutil.Serve(router, nethttp.MethodPost, "/api/simulations", strings.NewReader(`{"team":"Arsenal","rank":2}`))
	testutil.AssertStatus(t, rr, nethttp.StatusOK)
}

func TestRouterMountsAdminWhenConfigured(t *testing.T) {
	router := newTestRouter(t, true, nil)
	req, _ := nethttp.NewRequest(nethttp.MethodPost, "/admin/snapshots/reload", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr := testutil.ServeRequest(router, req)
	testutil.AssertStatus(t, rr, nethttp.StatusOK)
}

func TestRouterRateLimitsSimulations(t *testing.T) {
	router := newTestRouter(t, false, middleware.NewRateLimiter(0.001, 1, nil))
	body := `{"team":"Arsenal","rank":2}`

	rr := testutil.Serve(router, nethttp.MethodPost, "/api/simulations", strings.NewReader(body))
	testutil.AssertStatus(t, rr, nethttp.StatusOK)
	rr = testutil.Serve(router, nethttp.MethodPost, "/api/simulations", strings.NewReader(body))
	testutil.AssertStatus(t, rr, nethttp.StatusTooManyRequests)

	// Read-only routes are not limited.
	for range 3 {
		rr = testutil.Serve(router, nethttp.MethodGet, "/api/standings", nil)
		testutil.AssertStatus(t, rr, nethttp.StatusOK)
	}
}
