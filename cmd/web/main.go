// Package main is the entry point for the Satvika web frontend. The
// service renders HTMX templates and talks to the nutrition label API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/satvika/web/internal/infrastructure/config"
	"github.com/satvika/web/internal/infrastructure/http/webserver"
	"github.com/satvika/web/internal/infrastructure/poll"
	"github.com/satvika/web/internal/infrastructure/session"
	"github.com/satvika/web/internal/upstream"
	"github.com/satvika/web/pkg/healthcheck"
	"github.com/satvika/web/pkg/logger"
)

func main() {
	app := fx.New(
		fx.NopLogger,

		fx.Provide(func() (*config.Config, error) {
			return config.Load("")
		}),

		fx.Provide(func(cfg *config.Config) (*zap.Logger, error) {
			return logger.New(logger.Config{
				Level:       cfg.App.LogLevel,
				Format:      cfg.App.LogFormat,
				Development: cfg.App.Debug,
			})
		}),

		fx.Provide(func(cfg *config.Config, log *zap.Logger) *upstream.Client {
			return upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.RequestTimeout, log)
		}),

		fx.Provide(newSessionStore),
		fx.Provide(newHealthCheck),
		fx.Provide(webserver.NewWebServer),

		fx.Invoke(registerLifecycleHooks),
		fx.Invoke(registerHealthChecks),
	)

	app.Run()
}

// newSessionStore selects the configured session backend. Redis keeps
// sessions across restarts; memory is the single-instance default.
func newSessionStore(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (session.Store, error) {
	switch cfg.Session.Store {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.Database,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			PoolSize:     cfg.Redis.PoolSize,
		})
		store := session.NewRedisStore(client, log)
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
		return store, nil
	case "memory":
		store := session.NewMemoryStore(cfg.Session.CleanupInterval, log)
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				store.Close()
				return nil
			},
		})
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}

func newHealthCheck(cfg *config.Config) *healthcheck.HealthCheck {
	return healthcheck.New(cfg.App.Name, cfg.App.Version)
}

func registerHealthChecks(
	cfg *config.Config,
	hc *healthcheck.HealthCheck,
	api *upstream.Client,
	store session.Store,
) {
	hc.Register("upstream_api", func(ctx context.Context) error {
		if !api.VerifyConnection(ctx) {
			return fmt.Errorf("nutrition API at %s not reachable", cfg.Upstream.BaseURL)
		}
		return nil
	})

	if rs, ok := store.(*session.RedisStore); ok {
		hc.RegisterOptional("redis_sessions", func(ctx context.Context) error {
			return rs.Ping(ctx)
		})
	}
}

func registerLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	server *webserver.WebServer,
) {
	var alertPoller *poll.Poller
	if cfg.Alerts.Enable {
		alertPoller = poll.New("regulatory-alerts", cfg.Alerts.PollInterval, server.AlertFetch(), log)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting web frontend",
				zap.Int("port", cfg.Server.Port),
				zap.String("environment", cfg.App.Environment),
				zap.String("upstream", cfg.Upstream.BaseURL),
			)

			go func() {
				if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("web server failed", zap.Error(err))
				}
			}()

			if alertPoller != nil {
				alertPoller.Start()
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if alertPoller != nil {
				alertPoller.Stop()
			}
			return server.Shutdown(ctx)
		},
	})
}
