// Package store owns the Postgres pool behind the rating_events table.
package store

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/moviegraph/db"
)

// Options controls connection-pool behaviour.
type Options struct {
	MaxConns               int32
	MinConns               int32
	MaxConnIdleTime        time.Duration
	MaxConnLifetime        time.Duration
	ConnTimeout            time.Duration
	StatementCacheCapacity int
	Logger                 zerolog.Logger
}

// Store wraps the pool used to import and stream rating events.
type Store struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
	opts   Options
}

func poolConfig(dbURL string, opts Options) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = opts.MaxConnIdleTime
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}
	// A zero capacity disables the cache, so fall back to describe-exec mode.
	if opts.StatementCacheCapacity > 0 {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
		cfg.ConnConfig.StatementCacheCapacity = opts.StatementCacheCapacity
	} else {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
	}
	return cfg, nil
}

// New opens the pool and pings it within opts.ConnTimeout.
func New(ctx context.Context, dbURL string, opts Options) (*Store, error) {
	logger := opts.Logger.With().Str("component", "store").Logger()

	cfg, err := poolConfig(dbURL, opts)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Int32("max_conns", cfg.MaxConns).
		Int32("min_conns", cfg.MinConns).
		Int("stmt_cache", opts.StatementCacheCapacity).
		Msg("opening connection pool")

	ctx, cancel := withTimeout(ctx, opts.ConnTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info().Str("host", cfg.ConnConfig.Host).Msg("database connection established")
	return &Store{pool: pool, logger: logger, opts: opts}, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.logger.Info().Msg("closing connection pool")
	s.pool.Close()
}

// HealthCheck pings the database.
func (s *Store) HealthCheck(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("store not initialized")
	}
	ctx, cancel := withTimeout(ctx, s.opts.ConnTimeout)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Pool exposes the underlying pgx pool for repositories.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Migrate applies the embedded up scripts in file-name order.
func (s *Store) Migrate(ctx context.Context) error {
	n, err := Migrate(ctx, s.pool)
	if err != nil {
		return err
	}
	s.logger.Info().Int("scripts", n).Msg("schema migrated")
	return nil
}

// Migrate applies the embedded up scripts to pool and returns how many ran.
// Empty scripts are skipped and not counted.
// Every script is written to be re-runnable.
func Migrate(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	names, err := fs.Glob(db.Migrations, "migrations/*.up.sql")
	if err != nil {
		return 0, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	applied := 0
	for _, name := range names {
		script, err := fs.ReadFile(db.Migrations, name)
		if err != nil {
			return 0, fmt.Errorf("read migration %s: %w", path.Base(name), err)
		}
		if strings.TrimSpace(string(script)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(script)); err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", path.Base(name), err)
		}
		applied++
	}
	return applied, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
