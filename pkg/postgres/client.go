package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Client wraps a pgx connection pool.
type Client struct {
	Pool *pgxpool.Pool
}

// New creates a connection pool and verifies connectivity.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &Config{
		Host:        "localhost",
		Port:        5432,
		Database:    "edgepulse",
		User:        "postgres",
		SSLMode:     "disable",
		MaxConns:    10,
		ConnTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Client{Pool: pool}, nil
}

// InitSchema executes schema DDL statements.
func (c *Client) InitSchema(ctx context.Context, statements []string) error {
	for _, stmt := range statements {
		if _, err := c.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.Pool.Ping(ctx)
}

// Close closes the pool.
func (c *Client) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}
