package db

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/acme/interview-callback/internal/config"
)

// Postgres wraps a sqlx DB instance backed by pgx.
type Postgres struct {
	pool *pgxpool.Pool
	db   *sqlx.DB
}

// DSN builds the connection string for cfg.
func DSN(cfg config.PostgresConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.Database,
	}
	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	q.Set("application_name", "interview-callback")
	u.RawQuery = q.Encode()
	return u.String()
}

// NewPostgres creates a new connection pool for interview metadata.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}

	db := sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx")

	if err := db.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &Postgres{pool: pool, db: db}, nil
}

// DB exposes the sqlx handle.
func (p *Postgres) DB() *sqlx.DB {
	return p.db
}

// Close drains the pool and releases resources.
func (p *Postgres) Close(ctx context.Context) error {
	var err error
	if p.db != nil {
		err = p.db.Close()
	}
	if p.pool != nil {
		p.pool.Close()
	}
	return err
}
