package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	appsims "github.com/preston-bernstein/league-sim-service/internal/app/simulations"
	appstandings "github.com/preston-bernstein/league-sim-service/internal/app/standings"
	"github.com/preston-bernstein/league-sim-service/internal/config"
	"github.com/preston-bernstein/league-sim-service/internal/history"
	httpserver "github.com/preston-bernstein/league-sim-service/internal/http"
	"github.com/preston-bernstein/league-sim-service/internal/http/handlers"
	"github.com/preston-bernstein/league-sim-service/internal/http/middleware"
	"github.com/preston-bernstein/league-sim-service/internal/logging"
	"github.com/preston-bernstein/league-sim-service/internal/metrics"
	"github.com/preston-bernstein/league-sim-service/internal/reloader"
	"github.com/preston-bernstein/league-sim-service/internal/scheduler"
	"github.com/preston-bernstein/league-sim-service/internal/simulator"
	"github.com/preston-bernstein/league-sim-service/internal/snapshots"
	"github.com/preston-bernstein/league-sim-service/internal/store"
)

var metricsSetup = metrics.Setup

const gridJob = "position-grid"

// DataReloader keeps the in-memory dataset in sync with the data directory.
type DataReloader interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
	Status() reloader.Status
	Reload(ctx context.Context) (bool, error)
}

// Server owns every long-running component and their shutdown order.
type Server struct {
	cfg           config.Config
	logger        *slog.Logger
	metrics       *metrics.Recorder
	store         *store.MemoryStore
	sims          *appsims.Service
	league        *appstandings.Service
	history       *history.Store
	reloader      DataReloader
	scheduler     *scheduler.Scheduler
	httpServer    httpServer
	metricsServer httpServer
	metricsStop   func(context.Context) error

	// started flips once the scheduler's first grid run is queued; earlier dataset changes are covered by it.
	started  atomic.Bool
	bgCtx    context.Context
	bgCancel context.CancelFunc
	bg       sync.WaitGroup
}

// New wires the service from configuration.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	return newServerWithMetrics(ctx, cfg, logger, nil)
}

func newServerWithMetrics(ctx context.Context, cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*Server, error) {
	if logger == nil {
		logger = logging.NewLogger(logging.Config{})
	}
	recorder, metricsSrv, metricsShutdown := buildMetrics(cfg, logger, recorder)

	hist, err := openHistory(ctx, cfg.History)
	if err != nil {
		if metricsShutdown != nil {
			_ = metricsShutdown(ctx)
		}
		return nil, err
	}

	memoryStore := store.NewMemoryStore()
	sims := appsims.NewService(memoryStore, buildEngine(cfg.Simulation), historyOrNil(hist), logger, recorder, appsims.Options{
		DefaultTrials: cfg.Simulation.DefaultTrials(),
		MaxTrials:     cfg.Simulation.MaxTrials,
		GridTrials:    cfg.Precompute.Trials,
		CacheTTL:      cfg.Simulation.CacheTTL,
	})
	rl := reloader.New(reloader.NewRetryingLoader(snapshots.NewFSStore(cfg.DataDir), logger, 0, 0), memoryStore, logger, recorder, cfg.ReloadInterval)

	bgCtx, bgCancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:           cfg,
		logger:        logger,
		metrics:       recorder,
		store:         memoryStore,
		sims:          sims,
		league:        appstandings.NewService(memoryStore),
		history:       hist,
		reloader:      rl,
		metricsServer: metricsSrv,
		metricsStop:   metricsShutdown,
		bgCtx:         bgCtx,
		bgCancel:      bgCancel,
	}
	rl.OnChange(s.onDatasetChange)

	if cfg.Precompute.Enabled() {
		sched := scheduler.New(logger, 0)
		if err := sched.Schedule(gridJob, cfg.Precompute.Schedule, s.refreshGrid); err != nil {
			s.closeHistory()
			bgCancel()
			return nil, err
		}
		s.scheduler = sched
	}

	s.httpServer = buildHTTPServer(cfg, s, logger, recorder)
	return s, nil
}

func buildEngine(cfg config.SimulationConfig) *simulator.Engine {
	return simulator.NewEngine(cfg.Workers, cfg.BatchSize, cfg.Seed)
}

func openHistory(ctx context.Context, cfg config.HistoryConfig) (*history.Store, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	hist, err := history.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return hist, nil
}

// historyOrNil keeps a disabled history a nil interface rather than a typed nil.
func historyOrNil(hist *history.Store) appsims.History {
	if hist == nil {
		return nil
	}
	return hist
}

func buildHTTPServer(cfg config.Config, s *Server, logger *slog.Logger, recorder *metrics.Recorder) httpServer {
	handler := handlers.NewHandler(s.sims, s.league, logger, s.reloader.Status)
	routes := httpserver.Routes{
		Handler: handler,
		Limiter: middleware.NewRateLimiter(cfg.Simulation.RatePerSecond, cfg.Simulation.RateBurst, recorder),
	}
	// Admin endpoints are only mounted when a token is configured.
	if cfg.AdminToken != "" {
		routes.Admin = handlers.NewAdminHandler(snapshots.NewWriter(cfg.DataDir), s.reloader, cfg.AdminToken, logger)
	}
	wrapped := middleware.LoggingMiddleware(logger, recorder, httpserver.NewRouter(routes))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           wrapped,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	return netHTTPServer{srv: srv}
}

// onDatasetChange drops results computed against the previous data and recomputes the grid.
func (s *Server) onDatasetChange(_ context.Context, ds snapshots.Dataset) {
	s.sims.Invalidate()
	if s.scheduler == nil || !s.started.Load() {
		return
	}
	logging.Info(s.logger, "recomputing position grid", logging.FieldSnapshot, ds.Version)
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		if err := s.refreshGrid(s.bgCtx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Error(s.logger, "position grid refresh failed", err)
		}
	}()
}

func (s *Server) refreshGrid(ctx context.Context) error {
	_, err := s.sims.RefreshGrid(ctx)
	return err
}

// Run loads the data, starts background jobs and servers, then waits for context cancellation to shut down gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	s.startMetrics()
	s.reloader.Start(ctx)
	if s.scheduler != nil {
		if err := s.scheduler.Start(); err != nil {
			logging.Error(s.logger, "scheduler failed to start", err)
		}
	}
	s.started.Store(true)
	s.startServer(stop)

	<-ctx.Done()
	logging.Info(s.logger, "shutdown signal received")

	s.gracefulShutdown()
}

func (s *Server) startServer(stop context.CancelFunc) {
	launchServer("http", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})
}

func (s *Server) startMetrics() {
	if s.metricsServer == nil {
		return
	}
	launchServer("metrics", s.metricsServer, s.logger, nil)
}

func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error(s.logger, "graceful shutdown failed", err)
	}

	if err := s.reloader.Stop(shutdownCtx); err != nil {
		logging.Error(s.logger, "failed to stop reloader", err)
	}

	s.bgCancel()
	if s.scheduler != nil {
		if err := s.scheduler.Stop(shutdownCtx); err != nil {
			logging.Error(s.logger, "failed to stop scheduler", err)
		}
	}
	s.bg.Wait()

	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics shutdown failed", "error", err)
		}
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics server shutdown failed", "error", err)
		}
	}

	s.closeHistory()
	logging.Info(s.logger, "shutdown complete")
}

func (s *Server) closeHistory() {
	if s.history == nil {
		return
	}
	if err := s.history.Close(); err != nil {
		logging.Warn(s.logger, "history close failed", "error", err)
	}
}

func buildMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*metrics.Recorder, httpServer, func(context.Context) error) {
	if recorder != nil {
		return recorder, nil, nil
	}

	recCfg := metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		Port:         cfg.Metrics.Port,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	}
	if !recCfg.Enabled {
		return metrics.NewRecorder(), nil, nil
	}

	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		logging.Warn(logger, "metrics setup failed, continuing without telemetry", "err", err)
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil {
		metricsSrv = netHTTPServer{
			srv: &http.Server{
				Addr:              ":" + recCfg.Port,
				Handler:           handler,
				ReadHeaderTimeout: readHeaderTimeout,
			},
		}
	}

	return rec, metricsSrv, shutdown
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		logging.Info(logger, "starting "+name+" server", slog.String("addr", srv.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Warn(logger, name+" server failed", "error", err)
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// Handler exposes the HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}

// Status reports the reloader's view of the data directory.
func (s *Server) Status() reloader.Status {
	return s.reloader.Status()
}
