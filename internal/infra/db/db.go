package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Options struct {
	MaxConns int32
	MinConns int32
	// Attempts is how many times Ping is retried, one second apart, before giving up.
	Attempts int
}

// Connect opens a pool and waits until the database answers.
func Connect(ctx context.Context, dsn string, opts Options, log *slog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = 30
	}
	for i := 0; i < attempts; i++ {
		if err = pool.Ping(ctx); err == nil {
			return pool, nil
		}
		log.Info("waiting for database", "attempt", i+1, "of", attempts)
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	pool.Close()
	return nil, fmt.Errorf("database not reachable after %d attempts: %w", attempts, err)
}
