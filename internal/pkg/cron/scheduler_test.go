package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScanner struct {
	calls atomic.Int32
	n     int
	err   error
}

func (f *fakeScanner) ScanOverdue(context.Context) (int, error) {
	f.calls.Add(1)
	return f.n, f.err
}

func TestScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(nil)
	s.AddJob("count", 10*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestScheduler_RunStopsWithContext(t *testing.T) {
	s := NewScheduler(nil)
	s.AddJob("noop", time.Hour, func(context.Context) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestApprovalJobs(t *testing.T) {
	scanner := &fakeScanner{n: 2}
	s := NewScheduler(nil)
	NewApprovalJobs(scanner, time.Minute, nil).RegisterJobs(s)

	s.RunOnce(context.Background())
	assert.EqualValues(t, 1, scanner.calls.Load())

	scanner.err = errors.New("db down")
	err := NewApprovalJobs(scanner, 0, nil).FlagOverdueApprovals(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "db down")
}
