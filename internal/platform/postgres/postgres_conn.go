package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/MrEthical07/credvault/internal/platform/config"
	"github.com/MrEthical07/credvault/store/pgstore"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// Postgres owns the pgx pool and the database/sql handle the stores run on.
type Postgres struct {
	Pool *pgxpool.Pool
	DB   *sql.DB
}

// NewPostgresConnection opens a pool from cfg.Database.URL and pings it.
func NewPostgresConnection(ctx context.Context, cfg config.Config) (*Postgres, error) {
	parsedCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, parsedCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	slog.InfoContext(ctx, "postgres connection pool established", "max_conns", parsedCfg.MaxConns)
	return &Postgres{Pool: pool, DB: stdlib.OpenDBFromPool(pool)}, nil
}

func poolConfig(cfg config.Config) (*pgxpool.Config, error) {
	parsedCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx config: %w", err)
	}

	parsedCfg.MaxConns = cfg.Postgres.MaxConns
	parsedCfg.MinConns = cfg.Postgres.MinConns
	parsedCfg.MaxConnLifetime = cfg.Postgres.MaxConnLifetime
	parsedCfg.MaxConnIdleTime = cfg.Postgres.MaxConnIdleTime
	parsedCfg.HealthCheckPeriod = cfg.Postgres.HealthCheckPeriod
	parsedCfg.ConnConfig.ConnectTimeout = cfg.Postgres.ConnectTimeout
	return parsedCfg, nil
}

// Migrate applies the store schema.
func (p *Postgres) Migrate(ctx context.Context) error {
	return pgstore.Migrate(ctx, p.DB)
}

func (p *Postgres) Close() {
	if p.DB != nil {
		_ = p.DB.Close()
	}
	if p.Pool != nil {
		p.Pool.Close()
		slog.Info("postgres connection pool closed")
	}
}
