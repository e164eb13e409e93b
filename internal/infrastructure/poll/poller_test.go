package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestPoller_FetchesOnInterval(t *testing.T) {
	var calls atomic.Int32
	p := New("test", 10*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, zap.NewNop())

	p.Start()
	time.Sleep(55 * time.Millisecond)
	p.Stop()

	// Immediate first fetch plus ticks.
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestPoller_SkipsWhileInFlight(t *testing.T) {
	var started atomic.Int32
	block := make(chan struct{})
	p := New("test", 5*time.Millisecond, func(ctx context.Context) error {
		started.Add(1)
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	}, zap.NewNop())

	p.Start()
	time.Sleep(40 * time.Millisecond)

	// Only the immediate fetch ran; every tick found it still in flight.
	assert.Equal(t, int32(1), started.Load())

	close(block)
	p.Stop()
}

func TestPoller_StopWaitsForFetch(t *testing.T) {
	fetchDone := make(chan struct{})
	p := New("test", time.Hour, func(ctx context.Context) error {
		<-ctx.Done()
		close(fetchDone)
		return ctx.Err()
	}, zap.NewNop())

	p.Start()
	time.Sleep(5 * time.Millisecond)
	p.Stop()

	select {
	case <-fetchDone:
	default:
		t.Fatal("Stop returned before the in-flight fetch finished")
	}
}

func TestPoller_KeepsGoingAfterError(t *testing.T) {
	var calls atomic.Int32
	p := New("test", 10*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("boom")
	}, zap.NewNop())

	p.Start()
	time.Sleep(35 * time.Millisecond)
	p.Stop()

	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestPoller_StartStopIdempotent(t *testing.T) {
	p := New("test", time.Hour, func(ctx context.Context) error { return nil }, zap.NewNop())
	p.Start()
	p.Start()
	p.Stop()
	p.Stop()
	p.Start()
	p.Stop()
}
