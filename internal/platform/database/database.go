// Package database opens the stores tutor events are written to: a pgx
// pool for PostgreSQL and a database/sql handle for SQLite.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ApplicationName is reported to PostgreSQL as application_name.
const ApplicationName = "pai-ai-engine"

const (
	defaultMaxConns       = 4
	defaultConnectTimeout = 10 * time.Second
)

// PoolConfig describes the PostgreSQL events store.
type PoolConfig struct {
	URL      string
	MaxConns int
	MinConns int

	// ConnectTimeout bounds the initial ping. Zero means 10s.
	ConnectTimeout time.Duration
}

// poolConfig turns c into a pgxpool config. MinConns is clamped to
// MaxConns.
func (c PoolConfig) poolConfig() (*pgxpool.Config, error) {
	if c.URL == "" {
		return nil, errors.New("events database URL is empty")
	}
	pc, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parse events database URL: %w", err)
	}

	maxConns := c.MaxConns
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	minConns := max(0, min(c.MinConns, maxConns))

	pc.MaxConns = int32(maxConns)
	pc.MinConns = int32(minConns)
	pc.MaxConnIdleTime = time.Minute
	pc.MaxConnLifetime = 30 * time.Minute
	pc.HealthCheckPeriod = 30 * time.Second
	if _, ok := pc.ConnConfig.RuntimeParams["application_name"]; !ok {
		pc.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	}
	return pc, nil
}

// OpenPostgres connects to the events database and pings it once.
func OpenPostgres(ctx context.Context, c PoolConfig) (*pgxpool.Pool, error) {
	pc, err := c.poolConfig()
	if err != nil {
		return nil, err
	}

	timeout := c.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("open events database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping events database %s: %w", pc.ConnConfig.Host, err)
	}
	return pool, nil
}
