package metrics

import (
	"sync"
	"time"
)

type stats struct {
	requests         int
	simulations      int
	simulationErrors int
	trials           int
	lastSimulation   time.Duration
	cacheHits        int
	cacheMisses      int
	rateLimited      int
	reloads          int
	reloadErrors     int
	datasetChanges   int
	gridRuns         int
	gridErrors       int
	lastGridDuration time.Duration
}

// Recorder captures lightweight, in-memory counters and forwards them to OpenTelemetry when configured.
// A nil Recorder is valid and records nothing.
type Recorder struct {
	mu    sync.Mutex
	stats stats
	otel  *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{otel: otel}
}

// Snapshot is a copy of the current counters.
type Snapshot struct {
	Requests         int
	Simulations      int
	SimulationErrors int
	Trials           int
	LastSimulation   time.Duration
	CacheHits        int
	CacheMisses      int
	RateLimited      int
	Reloads          int
	ReloadErrors     int
	DatasetChanges   int
	GridRuns         int
	GridErrors       int
	LastGridDuration time.Duration
}

// Snapshot returns a copy of the current counters.
func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stats
	return Snapshot{
		Requests:         s.requests,
		Simulations:      s.simulations,
		SimulationErrors: s.simulationErrors,
		Trials:           s.trials,
		LastSimulation:   s.lastSimulation,
		CacheHits:        s.cacheHits,
		CacheMisses:      s.cacheMisses,
		RateLimited:      s.rateLimited,
		Reloads:          s.reloads,
		ReloadErrors:     s.reloadErrors,
		DatasetChanges:   s.datasetChanges,
		GridRuns:         s.gridRuns,
		GridErrors:       s.gridErrors,
		LastGridDuration: s.lastGridDuration,
	}
}

func (r *Recorder) update(fn func(s *stats)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.stats)
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	r.update(func(s *stats) { s.requests++ })
	if r.otel != nil {
		r.otel.recordHTTPRequest(method, path, status, duration)
	}
}

// RecordSimulation tracks an engine run of the given number of trials.
func (r *Recorder) RecordSimulation(trials int, duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.update(func(s *stats) {
		s.simulations++
		s.lastSimulation = duration
		if err != nil {
			s.simulationErrors++
			return
		}
		s.trials += trials
	})
	if r.otel != nil {
		r.otel.recordSimulation(trials, duration, err)
	}
}

// RecordCacheLookup tracks result cache hits and misses.
func (r *Recorder) RecordCacheLookup(hit bool) {
	if r == nil {
		return
	}
	r.update(func(s *stats) {
		if hit {
			s.cacheHits++
		} else {
			s.cacheMisses++
		}
	})
	if r.otel != nil {
		r.otel.recordCacheLookup(hit)
	}
}

// RecordRateLimited tracks a request rejected by the simulation rate limiter.
func (r *Recorder) RecordRateLimited(path string) {
	if r == nil {
		return
	}
	r.update(func(s *stats) { s.rateLimited++ })
	if r.otel != nil {
		r.otel.recordRateLimited(path)
	}
}

// RecordReload tracks a data reload cycle and whether it produced a new dataset version.
func (r *Recorder) RecordReload(duration time.Duration, changed bool, err error) {
	if r == nil {
		return
	}
	r.update(func(s *stats) {
		s.reloads++
		if err != nil {
			s.reloadErrors++
		} else if changed {
			s.datasetChanges++
		}
	})
	if r.otel != nil {
		r.otel.recordReload(duration, changed, err)
	}
}

// RecordGridRun tracks a finishing-position grid computation.
func (r *Recorder) RecordGridRun(trials int, duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.update(func(s *stats) {
		s.gridRuns++
		s.lastGridDuration = duration
		if err != nil {
			s.gridErrors++
		}
	})
	if r.otel != nil {
		r.otel.recordGridRun(trials, duration, err)
	}
}
