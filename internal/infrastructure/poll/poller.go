// Package poll runs a periodic fetch loop with an in-flight guard, used
// to refresh the regulatory alerts feed in the background.
package poll

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Fetch performs one poll cycle. Errors are logged and the loop keeps
// going; the next tick retries.
type Fetch func(ctx context.Context) error

// Poller invokes a Fetch on a fixed interval. A tick that fires while
// the previous fetch is still running is skipped rather than queued, so
// a slow API never piles up concurrent polls.
type Poller struct {
	name     string
	interval time.Duration
	fetch    Fetch
	logger   *zap.Logger

	inFlight atomic.Bool
	cancel   context.CancelFunc
	done     chan struct{}
	startMu  sync.Mutex
}

// New creates a poller. It does nothing until Start is called.
func New(name string, interval time.Duration, fetch Fetch, logger *zap.Logger) *Poller {
	return &Poller{
		name:     name,
		interval: interval,
		fetch:    fetch,
		logger:   logger,
	}
}

// Start launches the loop. The first fetch runs immediately, then every
// interval. Start is idempotent while the loop is running.
func (p *Poller) Start() {
	p.startMu.Lock()
	defer p.startMu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(ctx)
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.logger.Debug("Poll skipped, previous fetch still running",
			zap.String("poller", p.name))
		return
	}
	defer p.inFlight.Store(false)

	if err := p.fetch(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn("Poll fetch failed",
			zap.String("poller", p.name),
			zap.Error(err))
	}
}

// Stop cancels the loop and waits for any in-flight fetch to return.
func (p *Poller) Stop() {
	p.startMu.Lock()
	defer p.startMu.Unlock()
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.cancel = nil
	p.done = nil
}
