package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/pdf2ynab/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a connection pool sized from cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("history database connected",
		"max_conns", cfg.MaxConns,
		"min_conns", cfg.MinConns,
	)
	return pool, nil
}

// Open connects to the database in cfg, ensures the schema and returns a
// Store together with the pool's Close function.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, func(), error) {
	pool, err := Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	store := New(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}
