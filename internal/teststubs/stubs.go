package teststubs

import (
	"sync"
	"sync/atomic"

	"github.com/preston-bernstein/league-sim-service/internal/snapshots"
)

// StubLoader is a test double for a dataset loader.
// Each Load returns the next entry of Datasets; the last entry repeats.
type StubLoader struct {
	mu       sync.Mutex
	Datasets []snapshots.Dataset
	Err      error
	Calls    atomic.Int32
	Notify   chan struct{}
}

// Load returns the configured dataset or error while tracking calls.
func (s *StubLoader) Load() (snapshots.Dataset, error) {
	if s.Notify != nil {
		select {
		case <-s.Notify:
		default:
			close(s.Notify)
		}
	}
	n := int(s.Calls.Add(1))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return snapshots.Dataset{}, s.Err
	}
	if len(s.Datasets) == 0 {
		return snapshots.Dataset{}, nil
	}
	return s.Datasets[min(n, len(s.Datasets))-1], nil
}

// SetErr changes the error returned by subsequent loads.
func (s *StubLoader) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
}
