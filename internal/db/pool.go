package db

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolOptions tune the pool for one CLI invocation. Publishing holds a
// single transaction, so few connections are needed.
type PoolOptions struct {
	MaxConns         int32
	StatementTimeout time.Duration // 0 disables; the result COPY can be long
	LockTimeout      time.Duration // fail instead of queueing behind DDL
	PingTimeout      time.Duration
}

// DefaultPoolOptions returns the options used by the rxmargin commands.
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxConns:    2,
		LockTimeout: 30 * time.Second,
		PingTimeout: 10 * time.Second,
	}
}

// NewPool creates a pgxpool and verifies the connection.
func NewPool(ctx context.Context, dsn string, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := poolConfig(dsn, opts)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx := ctx
	if opts.PingTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.PingTimeout)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

func poolConfig(dsn string, opts PoolOptions) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	rp := cfg.ConnConfig.RuntimeParams
	rp["application_name"] = "rxmargin"
	rp["statement_timeout"] = millis(opts.StatementTimeout)
	rp["lock_timeout"] = millis(opts.LockTimeout)
	return cfg, nil
}

func millis(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10)
}
