package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleRejectsBadSpec(t *testing.T) {
	s := New(nil, time.Second)
	err := s.Schedule("grid", "not a spec", func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestStartWithoutJobs(t *testing.T) {
	s := New(nil, time.Second)
	assert.ErrorIs(t, s.Start(), ErrNoJobs)
}

func TestStartRunsJobsImmediately(t *testing.T) {
	s := New(nil, time.Second)
	ran := make(chan struct{}, 1)
	require.NoError(t, s.Schedule("grid", "@every 1h", func(context.Context) error {
		ran <- struct{}{}
		return nil
	}))
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("expected job to run at start")
	}

	assert.ErrorIs(t, s.Start(), ErrRunning)
	assert.ErrorIs(t, s.Schedule("late", "@every 1h", func(context.Context) error { return nil }), ErrRunning)
}

func TestJobsRunOnSchedule(t *testing.T) {
	s := New(nil, time.Second)
	var runs atomic.Int32
	require.NoError(t, s.Schedule("tick", "@every 1s", func(context.Context) error {
		runs.Add(1)
		return errors.New("job errors are logged, not fatal")
	}))
	require.NoError(t, s.Start())

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 3*time.Second, 20*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
}

func TestStopCancelsRunningJobs(t *testing.T) {
	s := New(nil, time.Minute)
	started := make(chan struct{})
	var cancelled atomic.Bool
	require.NoError(t, s.Schedule("slow", "@every 1h", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	}))
	require.NoError(t, s.Start())
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.True(t, cancelled.Load())
	assert.NoError(t, s.Stop(context.Background()))
}
