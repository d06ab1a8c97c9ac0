package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is a DBTX that can open transactions. *pgxpool.Pool satisfies it.
type DB interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// WithTx runs fn inside a transaction, committing on success and rolling back otherwise.
func WithTx(ctx context.Context, db DB, fn func(tx DBTX) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("failed to rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ClientConfig sizes the connection pool.
type ClientConfig struct {
	DSN               string
	ApplicationName   string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

func DefaultClientConfig(dsn string) ClientConfig {
	return ClientConfig{
		DSN:               dsn,
		ApplicationName:   "videocatalog",
		MaxConns:          25,
		MinConns:          2,
		MaxConnLifetime:   time.Hour,
		MaxConnIdleTime:   15 * time.Minute,
		HealthCheckPeriod: time.Minute,
	}
}

// Client owns the pool shared by the catalog repositories.
type Client struct {
	pool *pgxpool.Pool
}

// NewClient opens the pool and pings the server once.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns >= 0 && cfg.MinConns <= poolConfig.MaxConns {
		poolConfig.MinConns = cfg.MinConns
	}
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	if cfg.ApplicationName != "" {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{pool: pool}, nil
}

func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}

func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

func (c *Client) Close() {
	c.pool.Close()
}

// PoolStats is a snapshot of pool usage.
type PoolStats struct {
	Acquired       int32
	Idle           int32
	Total          int32
	Max            int32
	AcquireCount   int64
	EmptyAcquires  int64
	AcquireLatency time.Duration
}

func (c *Client) Stats() PoolStats {
	s := c.pool.Stat()
	return PoolStats{
		Acquired:       s.AcquiredConns(),
		Idle:           s.IdleConns(),
		Total:          s.TotalConns(),
		Max:            s.MaxConns(),
		AcquireCount:   s.AcquireCount(),
		EmptyAcquires:  s.EmptyAcquireCount(),
		AcquireLatency: s.AcquireDuration(),
	}
}

// LogValue renders the snapshot as a slog group.
func (s PoolStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("acquired", int(s.Acquired)),
		slog.Int("idle", int(s.Idle)),
		slog.Int("total", int(s.Total)),
		slog.Int("max", int(s.Max)),
		slog.Int64("acquire_count", s.AcquireCount),
		slog.Int64("empty_acquires", s.EmptyAcquires),
		slog.Duration("acquire_latency", s.AcquireLatency),
	)
}
