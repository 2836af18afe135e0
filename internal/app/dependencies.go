// Package app opens the infrastructure clients shared by the API and the tools.
package app

import (
	"context"
	"errors"
	"fmt"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pricecompare-api/internal/config"
	"github.com/noah-isme/pricecompare-api/internal/health"
	"github.com/noah-isme/pricecompare-api/internal/obs"
)

// Dependencies enumerates the optional backing services. Either field may be nil:
// the pricing engine itself needs neither.
type Dependencies struct {
	DB    *pgxpool.Pool
	Redis *redis.Client
}

// Connect opens Postgres and Redis when their URLs are configured and verifies
// both with a ping.
func Connect(ctx context.Context, cfg *config.Config, logger zerolog.Logger, appName string) (*Dependencies, error) {
	deps := &Dependencies{}
	if cfg.DatabaseURL != "" {
		pool, err := OpenDB(ctx, cfg.DatabaseURL, appName)
		if err != nil {
			return nil, err
		}
		deps.DB = pool
	} else {
		logger.Warn().Msg("DATABASE_URL not set; promotion store disabled")
	}
	if cfg.RedisURL != "" {
		client, err := OpenRedis(ctx, cfg.RedisURL, cfg.Obs.MetricsEnabled, logger)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.Redis = client
	} else {
		logger.Warn().Msg("REDIS_URL not set; promotion cache disabled")
	}
	return deps, nil
}

// OpenDB builds a traced pgx pool.
func OpenDB(ctx context.Context, url, appName string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = appName

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// OpenRedis builds a Redis client instrumented with OpenTelemetry.
func OpenRedis(ctx context.Context, url string, metrics bool, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Probes exposes the configured clients to the readiness handler.
func (d *Dependencies) Probes() health.Probes {
	var probes health.Probes
	if d == nil {
		return probes
	}
	if d.DB != nil {
		probes.DB = d.DB.Ping
	}
	if d.Redis != nil {
		client := d.Redis
		probes.Redis = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	return probes
}

// Close releases every open client.
func (d *Dependencies) Close() {
	if d == nil {
		return
	}
	if d.DB != nil {
		d.DB.Close()
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
}

// RunMigrations applies pending migrations, treating "no change" as success.
func RunMigrations(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
