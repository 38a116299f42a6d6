package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSpec(t *testing.T) {
	for _, spec := range []string{"@every 15m", "@hourly", "*/5 * * * *", "0 */5 * * * *"} {
		assert.NoError(t, ValidateSpec(spec), spec)
	}
	for _, spec := range []string{"", "every 15m", "61 * * * *", "@every -1m"} {
		assert.Error(t, ValidateSpec(spec), spec)
	}
}

func TestSchedulerRunsJob(t *testing.T) {
	s := NewScheduler(time.UTC, discardLogger())

	var runs int32
	id, err := s.Schedule("* * * * * *", JobFunc{JobName: "tick", Fn: func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}})
	require.NoError(t, err)

	s.Start()
	assert.False(t, s.Next(id).IsZero())
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := NewScheduler(nil, nil)
	_, err := s.Schedule("not a schedule", noopJob("x"))
	assert.Error(t, err)
}

func TestSchedulerStopCancelsRunningJob(t *testing.T) {
	s := NewScheduler(time.UTC, discardLogger())

	started := make(chan struct{}, 1)
	_, err := s.Schedule("* * * * * *", JobFunc{JobName: "block", Fn: func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return ctx.Err()
	}})
	require.NoError(t, err)
	s.Start()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job never started")
	}

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}
