package cron

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsJobs(t *testing.T) {
	s := NewScheduler("stats-report", nil, WithSeconds())
	var runs atomic.Int32
	require.NoError(t, s.AddJob("* * * * * *", "tick", func() { runs.Add(1) }))
	assert.Equal(t, 1, s.Jobs())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	require.NoError(t, s.Stop(context.Background()))
}

func TestSchedulerJobManagement(t *testing.T) {
	s := NewScheduler("jobs", nil)
	assert.Error(t, s.AddJob("not a spec", "bad", func() {}))

	require.NoError(t, s.AddJob("@every 1h", "report", func() {}))
	require.NoError(t, s.AddJob("@every 2h", "report", func() {}))
	assert.Equal(t, 1, s.Jobs())

	_, ok := s.Next("report")
	assert.True(t, ok)

	s.RemoveJob("report")
	assert.Equal(t, 0, s.Jobs())
	_, ok = s.Next("report")
	assert.False(t, ok)
}
