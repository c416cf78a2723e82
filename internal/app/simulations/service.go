package simulations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/preston-bernstein/league-sim-service/internal/domain/fixtures"
	domainsims "github.com/preston-bernstein/league-sim-service/internal/domain/simulations"
	"github.com/preston-bernstein/league-sim-service/internal/domain/standings"
	"github.com/preston-bernstein/league-sim-service/internal/history"
	"github.com/preston-bernstein/league-sim-service/internal/logging"
	"github.com/preston-bernstein/league-sim-service/internal/metrics"
	"github.com/preston-bernstein/league-sim-service/internal/simulator"
	"github.com/preston-bernstein/league-sim-service/internal/snapshots"
)

var (
	ErrNoData          = errors.New("league data not loaded")
	ErrGridNotReady    = errors.New("position grid not computed yet")
	ErrHistoryDisabled = errors.New("simulation history disabled")
	ErrNotFound        = history.ErrNotFound
)

// DatasetSource exposes the active dataset.
type DatasetSource interface {
	Current() (snapshots.Dataset, bool)
}

// Engine runs Monte Carlo trials.
type Engine interface {
	Run(ctx context.Context, table *standings.Table, list []fixtures.Fixture, team string, rank, trials int, progress simulator.ProgressFunc) (simulator.Tally, error)
	RunGrid(ctx context.Context, table *standings.Table, list []fixtures.Fixture, trials int, progress simulator.ProgressFunc) (simulator.GridTally, error)
}

// History persists finished runs.
type History interface {
	SaveRun(ctx context.Context, result domainsims.Result) (domainsims.Result, error)
	GetRun(ctx context.Context, id string) (domainsims.Result, error)
	ListRuns(ctx context.Context, limit int) ([]domainsims.Result, error)
}

// Options bounds requests and sizes the cache and grid.
type Options struct {
	DefaultTrials int
	MaxTrials     int
	GridTrials    int
	CacheTTL      time.Duration
}

// Service answers simulation requests against the active dataset.
type Service struct {
	data    DatasetSource
	engine  Engine
	history History
	logger  *slog.Logger
	metrics *metrics.Recorder
	opts    Options
	cache   *resultCache
	now     func() time.Time

	gridMu sync.RWMutex
	grid   *domainsims.Grid
	// gridRun serializes grid computations.
	gridRun sync.Mutex
}

// NewService constructs a Service. history may be nil to disable persistence.
func NewService(data DatasetSource, engine Engine, hist History, logger *slog.Logger, recorder *metrics.Recorder, opts Options) *Service {
	if opts.DefaultTrials <= 0 {
		opts.DefaultTrials = 16000
	}
	if opts.MaxTrials <= 0 {
		opts.MaxTrials = opts.DefaultTrials
	}
	if opts.GridTrials <= 0 {
		opts.GridTrials = opts.DefaultTrials
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	return &Service{
		data:    data,
		engine:  engine,
		history: hist,
		logger:  logger,
		metrics: recorder,
		opts:    opts,
		cache:   newResultCache(opts.CacheTTL),
		now:     time.Now,
	}
}

// DefaultTrials is the trial count used when a request leaves it unset.
func (s *Service) DefaultTrials() int {
	return s.opts.DefaultTrials
}

// Prepare validates a request against the active dataset and fills in defaults.
func (s *Service) Prepare(req domainsims.Request) (domainsims.Request, snapshots.Dataset, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return req, snapshots.Dataset{}, err
	}
	ds, ok := s.data.Current()
	if !ok {
		return req, snapshots.Dataset{}, ErrNoData
	}
	if !ds.Table.Has(req.Team) {
		return req, ds, fmt.Errorf("%w: unknown team %q", domainsims.ErrInvalidRequest, req.Team)
	}
	if req.Rank > ds.Table.Len() {
		return req, ds, fmt.Errorf("%w: rank must be between 1 and %d", domainsims.ErrInvalidRequest, ds.Table.Len())
	}
	if req.Trials == 0 {
		req.Trials = s.opts.DefaultTrials
	}
	if req.Trials > s.opts.MaxTrials {
		return req, ds, fmt.Errorf("%w: trials must be at most %d", domainsims.ErrInvalidRequest, s.opts.MaxTrials)
	}
	return req, ds, nil
}

// Simulate answers a request, serving repeated requests for the same data version from cache.
func (s *Service) Simulate(ctx context.Context, req domainsims.Request) (domainsims.Result, error) {
	req, ds, err := s.Prepare(req)
	if err != nil {
		return domainsims.Result{}, err
	}

	key := cacheKey(ds.Version, req)
	if cached, ok := s.cache.get(key); ok {
		s.metrics.RecordCacheLookup(true)
		cached.Cached = true
		return cached, nil
	}
	s.metrics.RecordCacheLookup(false)

	result, err := s.run(ctx, ds, req, nil)
	if err != nil {
		return domainsims.Result{}, err
	}
	s.cache.set(key, result)
	return result, nil
}

// SimulateStream runs a fresh simulation and reports progress after every engine batch.
// Streamed results are never served from cache.
func (s *Service) SimulateStream(ctx context.Context, req domainsims.Request, progress func(domainsims.Progress)) (domainsims.Result, error) {
	req, ds, err := s.Prepare(req)
	if err != nil {
		return domainsims.Result{}, err
	}
	var fn simulator.ProgressFunc
	if progress != nil {
		fn = func(completed, hits int) {
			progress(domainsims.Progress{
				Completed:   completed,
				Trials:      req.Trials,
				Hits:        hits,
				Probability: float64(hits) / float64(completed),
			})
		}
	}
	result, err := s.run(ctx, ds, req, fn)
	if err != nil {
		return domainsims.Result{}, err
	}
	s.cache.set(cacheKey(ds.Version, req), result)
	return result, nil
}

func (s *Service) run(ctx context.Context, ds snapshots.Dataset, req domainsims.Request, progress simulator.ProgressFunc) (domainsims.Result, error) {
	start := time.Now()
	tally, err := s.engine.Run(ctx, ds.Table, ds.Fixtures, req.Team, req.Rank, req.Trials, progress)
	elapsed := time.Since(start)
	s.metrics.RecordSimulation(req.Trials, elapsed, err)
	if err != nil {
		return domainsims.Result{}, fmt.Errorf("simulate %s: %w", req.Team, err)
	}

	result := domainsims.Result{
		ID:                  uuid.NewString(),
		Team:                req.Team,
		Rank:                req.Rank,
		Trials:              tally.Trials,
		Hits:                tally.Hits,
		Probability:         tally.Probability(),
		Percent:             domainsims.PercentOf(tally.Probability()),
		Positions:           tally.Distribution(),
		AverageWinsAtRank:   tally.AverageWinsAtRank(),
		AveragePointsAtRank: tally.AveragePointsAtRank(),
		SnapshotVersion:     ds.Version,
		DurationMS:          elapsed.Milliseconds(),
		CreatedAt:           s.now().UTC(),
	}

	logger := logging.FromContext(ctx, s.logger)
	if s.history != nil {
		if saved, err := s.history.SaveRun(ctx, result); err != nil {
			logging.Warn(logger, "failed to persist simulation run", "error", err, logging.FieldRunID, result.ID)
		} else {
			result = saved
		}
	}
	logging.Info(logger, "simulation completed",
		logging.FieldRunID, result.ID,
		logging.FieldTeam, result.Team,
		logging.FieldRank, result.Rank,
		logging.FieldTrials, result.Trials,
		logging.FieldSnapshot, result.SnapshotVersion,
		logging.FieldDurationMS, result.DurationMS,
	)
	return result, nil
}

// Grid returns the most recent finishing-position grid for the active dataset.
func (s *Service) Grid() (domainsims.Grid, error) {
	s.gridMu.RLock()
	defer s.gridMu.RUnlock()
	if s.grid == nil {
		return domainsims.Grid{}, ErrGridNotReady
	}
	return *s.grid, nil
}

// RefreshGrid recomputes the finishing-position grid for every team.
func (s *Service) RefreshGrid(ctx context.Context) (domainsims.Grid, error) {
	s.gridRun.Lock()
	defer s.gridRun.Unlock()

	ds, ok := s.data.Current()
	if !ok {
		return domainsims.Grid{}, ErrNoData
	}
	start := time.Now()
	tally, err := s.engine.RunGrid(ctx, ds.Table, ds.Fixtures, s.opts.GridTrials, nil)
	elapsed := time.Since(start)
	s.metrics.RecordGridRun(s.opts.GridTrials, elapsed, err)
	if err != nil {
		return domainsims.Grid{}, fmt.Errorf("compute grid: %w", err)
	}

	grid := domainsims.Grid{
		SnapshotVersion: ds.Version,
		Trials:          tally.Trials,
		Teams:           make([]domainsims.GridRow, len(tally.Teams)),
		ComputedAt:      s.now().UTC(),
		DurationMS:      elapsed.Milliseconds(),
	}
	for i, name := range tally.Teams {
		grid.Teams[i] = domainsims.GridRow{
			Team:             name,
			Positions:        tally.Distribution(i),
			ExpectedPosition: tally.ExpectedPosition(i),
		}
	}
	slices.SortStableFunc(grid.Teams, func(a, b domainsims.GridRow) int {
		switch {
		case a.ExpectedPosition < b.ExpectedPosition:
			return -1
		case a.ExpectedPosition > b.ExpectedPosition:
			return 1
		}
		return 0
	})

	s.gridMu.Lock()
	defer s.gridMu.Unlock()
	// A reload may have replaced the dataset while the grid was computing.
	if current, ok := s.data.Current(); ok && current.Version != ds.Version {
		return grid, nil
	}
	s.grid = &grid
	logging.Info(s.logger, "position grid computed",
		logging.FieldSnapshot, grid.SnapshotVersion,
		logging.FieldTrials, grid.Trials,
		logging.FieldDurationMS, grid.DurationMS,
	)
	return grid, nil
}

// Invalidate drops cached results and the grid after the dataset changed.
func (s *Service) Invalidate() {
	s.cache.flush()
	s.gridMu.Lock()
	s.grid = nil
	s.gridMu.Unlock()
}

// History lists recent runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]domainsims.Result, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.ListRuns(ctx, limit)
}

// Run loads one persisted run.
func (s *Service) Run(ctx context.Context, id string) (domainsims.Result, error) {
	if s.history == nil {
		return domainsims.Result{}, ErrHistoryDisabled
	}
	return s.history.GetRun(ctx, id)
}
