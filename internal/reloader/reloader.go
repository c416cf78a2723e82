package reloader

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/preston-bernstein/league-sim-service/internal/logging"
	"github.com/preston-bernstein/league-sim-service/internal/metrics"
	"github.com/preston-bernstein/league-sim-service/internal/snapshots"
)

const (
	defaultInterval = time.Minute
	maxFailures     = 3
)

// Loader reads the current dataset from its source.
type Loader interface {
	Load() (snapshots.Dataset, error)
}

// Target holds the active dataset. Replace reports whether the version changed.
type Target interface {
	Replace(ds snapshots.Dataset) bool
}

// Listener is called after a reload swapped in a new dataset version.
type Listener func(ctx context.Context, ds snapshots.Dataset)

// Reloader re-reads the data files on an interval and swaps in new versions.
type Reloader struct {
	loader    Loader
	target    Target
	logger    *slog.Logger
	metrics   *metrics.Recorder
	interval  time.Duration
	now       func() time.Time
	listeners []Listener

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool

	reloadMu sync.Mutex

	statusMu sync.RWMutex
	status   Status
}

// Status describes the recent health of the reload loop.
type Status struct {
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	LastError           string    `json:"lastError,omitempty"`
	LastAttempt         time.Time `json:"lastAttempt"`
	LastSuccess         time.Time `json:"lastSuccess"`
	Version             string    `json:"version,omitempty"`
}

// IsReady reports whether a dataset has been loaded and reloads are not failing repeatedly.
func (s Status) IsReady() bool {
	if s.LastSuccess.IsZero() {
		return false
	}
	return s.ConsecutiveFailures < maxFailures
}

// New constructs a Reloader with sane defaults.
func New(loader Loader, target Target, logger *slog.Logger, recorder *metrics.Recorder, interval time.Duration) *Reloader {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Reloader{
		loader:   loader,
		target:   target,
		logger:   logger,
		metrics:  recorder,
		interval: interval,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// OnChange registers a listener. Register listeners before Start.
func (r *Reloader) OnChange(l Listener) {
	if l != nil {
		r.listeners = append(r.listeners, l)
	}
}

// Start begins reloading until the context is cancelled or Stop is called.
// The first reload happens synchronously in the caller's goroutine so the dataset is warm on return.
func (r *Reloader) Start(ctx context.Context) {
	r.startMu.Lock()
	if r.started {
		r.startMu.Unlock()
		return
	}
	r.started = true
	r.startMu.Unlock()

	_, _ = r.Reload(ctx)
	r.ticker = time.NewTicker(r.interval)

	go func() {
		logging.Info(r.logger, "reloader started", logging.FieldDurationMS, r.interval.Milliseconds())
		for {
			select {
			case <-ctx.Done():
				r.stopTicker()
				logging.Info(r.logger, "reloader stopped")
				return
			case <-r.done:
				r.stopTicker()
				logging.Info(r.logger, "reloader stopped")
				return
			case <-r.ticker.C:
				_, _ = r.Reload(ctx)
			}
		}
	}()
}

// Stop halts the reload loop.
func (r *Reloader) Stop(ctx context.Context) error {
	_ = ctx
	r.stopOnce.Do(func() {
		close(r.done)
		r.stopTicker()
	})
	return nil
}

// Reload reads the source once and swaps the dataset in when its version changed.
func (r *Reloader) Reload(ctx context.Context) (bool, error) {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	start := r.now()
	r.recordAttempt(start)
	ds, err := r.loader.Load()
	if err != nil {
		r.metrics.RecordReload(time.Since(start), false, err)
		logging.Error(r.logger, "data reload failed", err, logging.FieldDurationMS, time.Since(start).Milliseconds())
		r.recordFailure(err, start)
		return false, err
	}

	changed := r.target.Replace(ds)
	r.metrics.RecordReload(time.Since(start), changed, nil)
	r.recordSuccess(start, ds.Version)
	if !changed {
		return false, nil
	}

	logging.Info(r.logger, "league data reloaded",
		logging.FieldSnapshot, ds.Version,
		logging.FieldCount, ds.Table.Len(),
		logging.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	for _, l := range r.listeners {
		l(ctx, ds)
	}
	return true, nil
}

func (r *Reloader) stopTicker() {
	if r.ticker != nil {
		r.ticker.Stop()
	}
}

func (r *Reloader) recordAttempt(at time.Time) {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	r.status.LastAttempt = at
}

func (r *Reloader) recordSuccess(at time.Time, version string) {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	r.status.ConsecutiveFailures = 0
	r.status.LastError = ""
	r.status.LastSuccess = at
	r.status.Version = version
}

func (r *Reloader) recordFailure(err error, at time.Time) {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	r.status.ConsecutiveFailures++
	if err != nil {
		r.status.LastError = err.Error()
	}
	r.status.LastAttempt = at
}

// Status returns a snapshot of the reloader's recent health.
func (r *Reloader) Status() Status {
	r.statusMu.RLock()
	defer r.statusMu.RUnlock()
	return r.status
}
