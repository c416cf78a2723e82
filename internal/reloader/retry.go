package reloader

import (
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"github.com/preston-bernstein/league-sim-service/internal/logging"
	"github.com/preston-bernstein/league-sim-service/internal/snapshots"
)

const (
	defaultRetryAttempts = 3
	defaultBackoff       = 200 * time.Millisecond
)

type backoffFunc func(attempt int) time.Duration

// retryingLoader re-reads the data files when a read fails, which covers an
// editor that has only half-written a file when the tick lands.
type retryingLoader struct {
	inner       Loader
	logger      *slog.Logger
	maxAttempts int
	backoffFn   backoffFunc
	sleep       func(time.Duration)
}

// NewRetryingLoader wraps a Loader with linear backoff retries. If maxAttempts/backoff are <= 0, defaults are used.
// Missing files are not retried.
func NewRetryingLoader(inner Loader, logger *slog.Logger, maxAttempts int, backoff time.Duration) Loader {
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttempts
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &retryingLoader{
		inner:       inner,
		logger:      logger,
		maxAttempts: maxAttempts,
		backoffFn: func(attempt int) time.Duration {
			return time.Duration(attempt) * backoff
		},
		sleep: time.Sleep,
	}
}

func (r *retryingLoader) Load() (snapshots.Dataset, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		ds, err := r.inner.Load()
		if err == nil {
			return ds, nil
		}
		lastErr = err
		if attempt == r.maxAttempts || errors.Is(err, fs.ErrNotExist) {
			break
		}
		logging.Warn(r.logger, "data load retry", "attempt", attempt, "max_attempts", r.maxAttempts, "err", err)
		r.sleep(r.backoffFn(attempt))
	}
	return snapshots.Dataset{}, lastErr
}
