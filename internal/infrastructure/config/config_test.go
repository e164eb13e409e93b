package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Satvika", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8000", cfg.Upstream.BaseURL)
	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 5*time.Minute, cfg.Alerts.PollInterval)
	assert.True(t, cfg.RateLimit.Enable)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SATVIKA_SERVER_PORT", "9999")
	t.Setenv("SATVIKA_UPSTREAM_BASE_URL", "https://api.example.com")
	t.Setenv("SATVIKA_SESSION_STORE", "redis")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "https://api.example.com", cfg.Upstream.BaseURL)
	assert.Equal(t, "redis", cfg.Session.Store)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Session.Store = "sqlite"
	assert.ErrorContains(t, cfg.Validate(), "session.store")

	cfg.Session.Store = "memory"
	cfg.Server.Port = 0
	assert.ErrorContains(t, cfg.Validate(), "server.port")

	cfg.Server.Port = 8080
	cfg.Session.TTL = 0
	assert.ErrorContains(t, cfg.Validate(), "session.ttl")
}

func TestRedisAddr(t *testing.T) {
	cfg := &Config{Redis: RedisConfig{Host: "cache", Port: 6380}}
	assert.Equal(t, "cache:6380", cfg.RedisAddr())
}
