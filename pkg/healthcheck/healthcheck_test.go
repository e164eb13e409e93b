package healthcheck

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_AllHealthy(t *testing.T) {
	hc := New("satvika-web", "test")
	hc.Register("upstream", func(ctx context.Context) error { return nil })
	hc.Register("sessions", func(ctx context.Context) error { return nil })

	report := hc.Run(context.Background())

	assert.Equal(t, StatusHealthy, report.Status)
	assert.True(t, report.Healthy())
	assert.Len(t, report.Checks, 2)
	assert.Equal(t, "satvika-web", report.Service)
}

func TestRun_RequiredFailureIsUnhealthy(t *testing.T) {
	hc := New("satvika-web", "test")
	hc.Register("upstream", func(ctx context.Context) error { return errors.New("connection refused") })
	hc.Register("sessions", func(ctx context.Context) error { return nil })

	report := hc.Run(context.Background())

	assert.Equal(t, StatusUnhealthy, report.Status)
	assert.False(t, report.Healthy())
	require.Contains(t, report.Checks, "upstream")
	assert.Equal(t, StatusUnhealthy, report.Checks["upstream"].Status)
	assert.Equal(t, "connection refused", report.Checks["upstream"].Error)
	assert.Equal(t, StatusHealthy, report.Checks["sessions"].Status)
}

func TestRun_OptionalFailureOnlyDegrades(t *testing.T) {
	hc := New("satvika-web", "test")
	hc.Register("upstream", func(ctx context.Context) error { return nil })
	hc.RegisterOptional("redis", func(ctx context.Context) error { return errors.New("timeout") })

	report := hc.Run(context.Background())

	assert.Equal(t, StatusDegraded, report.Status)
	assert.True(t, report.Healthy())
}

func TestRun_RequiredFailureOutranksDegraded(t *testing.T) {
	hc := New("satvika-web", "test")
	hc.Register("upstream", func(ctx context.Context) error { return errors.New("down") })
	hc.RegisterOptional("redis", func(ctx context.Context) error { return errors.New("timeout") })

	report := hc.Run(context.Background())

	assert.Equal(t, StatusUnhealthy, report.Status)
}

func TestRun_ChecksRunConcurrently(t *testing.T) {
	hc := New("satvika-web", "test")
	for _, name := range []string{"a", "b", "c"} {
		hc.Register(name, func(ctx context.Context) error {
			time.Sleep(50 * time.Millisecond)
			return nil
		})
	}

	start := time.Now()
	report := hc.Run(context.Background())

	assert.Less(t, time.Since(start), 140*time.Millisecond)
	assert.Equal(t, StatusHealthy, report.Status)
}

func TestRun_NoChecks(t *testing.T) {
	hc := New("satvika-web", "test")
	report := hc.Run(context.Background())
	assert.Equal(t, StatusHealthy, report.Status)
	assert.Empty(t, report.Checks)
}
