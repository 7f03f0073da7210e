package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingCompleter struct {
	calls atomic.Int32
}

func (c *countingCompleter) CompleteElapsed(ctx context.Context) (int, error) {
	c.calls.Add(1)
	return 1, nil
}

func TestSchedulerRunsImmediatelyAndPeriodically(t *testing.T) {
	completer := &countingCompleter{}
	s := NewScheduler(completer, 10*time.Millisecond, zap.NewNop())

	s.Start(context.Background())

	assert.Eventually(t, func() bool { return completer.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	calls := completer.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, completer.calls.Load())
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	completer := &countingCompleter{}
	s := NewScheduler(completer, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, int32(1), completer.calls.Load())
}
