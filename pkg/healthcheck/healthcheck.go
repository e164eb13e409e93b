// Package healthcheck runs named dependency probes and aggregates them
// into a single service health report.
package healthcheck

import (
	"context"
	"sync"
	"time"
)

// Status is the aggregate or per-check health state.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check probes one dependency. A nil return means healthy.
type Check func(ctx context.Context) error

// CheckResult is the outcome of one probe.
type CheckResult struct {
	Status   Status        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ms"`
}

// Report is the aggregate health of the service.
type Report struct {
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// Healthy reports whether the service can take traffic. A degraded
// service still serves; only unhealthy fails readiness.
func (r Report) Healthy() bool {
	return r.Status != StatusUnhealthy
}

// HealthCheck holds the registered probes.
type HealthCheck struct {
	service string
	version string
	timeout time.Duration

	mu       sync.RWMutex
	checks   map[string]Check
	optional map[string]bool
}

// New creates a health check registry. Each probe gets a 5 second budget.
func New(service, version string) *HealthCheck {
	return &HealthCheck{
		service:  service,
		version:  version,
		timeout:  5 * time.Second,
		checks:   make(map[string]Check),
		optional: make(map[string]bool),
	}
}

// Register adds a required probe. Its failure makes the service unhealthy.
func (h *HealthCheck) Register(name string, check Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// RegisterOptional adds a probe whose failure only degrades the service.
func (h *HealthCheck) RegisterOptional(name string, check Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
	h.optional[name] = true
}

// Run executes all probes concurrently and aggregates the results.
func (h *HealthCheck) Run(ctx context.Context) Report {
	h.mu.RLock()
	checks := make(map[string]Check, len(h.checks))
	for name, c := range h.checks {
		checks[name] = c
	}
	h.mu.RUnlock()

	type outcome struct {
		name   string
		result CheckResult
	}
	results := make(chan outcome, len(checks))

	var wg sync.WaitGroup
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check Check) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()

			start := time.Now()
			err := check(cctx)
			res := CheckResult{
				Status:   StatusHealthy,
				Duration: time.Since(start) / time.Millisecond,
			}
			if err != nil {
				res.Status = StatusUnhealthy
				res.Error = err.Error()
			}
			results <- outcome{name: name, result: res}
		}(name, check)
	}
	wg.Wait()
	close(results)

	report := Report{
		Service:   h.service,
		Version:   h.version,
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]CheckResult, len(checks)),
	}
	h.mu.RLock()
	for o := range results {
		report.Checks[o.name] = o.result
		if o.result.Status == StatusUnhealthy {
			if h.optional[o.name] {
				if report.Status == StatusHealthy {
					report.Status = StatusDegraded
				}
			} else {
				report.Status = StatusUnhealthy
			}
		}
	}
	h.mu.RUnlock()

	return report
}
