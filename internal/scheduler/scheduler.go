package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/preston-bernstein/league-sim-service/internal/logging"
)

const defaultJobTimeout = 10 * time.Minute

var (
	ErrRunning = errors.New("scheduler already running")
	ErrNoJobs  = errors.New("no jobs scheduled")
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler runs named jobs on cron specs. Overlapping runs of the same job are skipped.
type Scheduler struct {
	cron       *cron.Cron
	logger     *slog.Logger
	jobTimeout time.Duration

	mu      sync.Mutex
	running bool
	jobs    []func()
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a scheduler evaluating specs in UTC.
func New(logger *slog.Logger, jobTimeout time.Duration) *Scheduler {
	if jobTimeout <= 0 {
		jobTimeout = defaultJobTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger:     logger,
		jobTimeout: jobTimeout,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Schedule registers a job. Specs accept five cron fields or descriptors such as "@every 30m".
func (s *Scheduler) Schedule(name, spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrRunning
	}
	run := func() { s.runJob(name, job) }
	_, err := s.cron.AddFunc(spec, func() {
		s.wg.Add(1)
		defer s.wg.Done()
		run()
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.jobs = append(s.jobs, run)
	logging.Info(s.logger, "job scheduled", "job", name, "spec", spec)
	return nil
}

func (s *Scheduler) runJob(name string, job Job) {
	ctx, cancel := context.WithTimeout(s.ctx, s.jobTimeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		logging.Error(s.logger, "scheduled job failed", err, "job", name, logging.FieldDurationMS, time.Since(start).Milliseconds())
		return
	}
	logging.Info(s.logger, "scheduled job completed", "job", name, logging.FieldDurationMS, time.Since(start).Milliseconds())
}

// Start runs every job once in the background and then hands them to cron.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrRunning
	}
	if len(s.jobs) == 0 {
		return ErrNoJobs
	}
	s.running = true
	for _, run := range s.jobs {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			run()
		}()
	}
	s.cron.Start()
	logging.Info(s.logger, "scheduler started", logging.FieldCount, len(s.jobs))
	return nil
}

// Stop cancels running jobs and waits for them to return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	cronDone := s.cron.Stop().Done()

	jobsDone := make(chan struct{})
	go func() {
		<-cronDone
		s.wg.Wait()
		close(jobsDone)
	}()

	select {
	case <-jobsDone:
		logging.Info(s.logger, "scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
