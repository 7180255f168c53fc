// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

// Package database provides the Postgres connection pool, schema bootstrap,
// and the typed repositories the pipeline stages depend on.
package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/nichescout/nichescout/internal/config"
	"github.com/nichescout/nichescout/internal/logging"
)

// ormOnlyParams are connection string query parameters consumed by foreign
// ORMs. Postgres rejects them, so they are stripped before pool creation.
var ormOnlyParams = []string{"schema", "pgbouncer"}

// DB wraps the pgx connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// CleanDatabaseURL strips ORM-only query parameters from a connection URL.
func CleanDatabaseURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid database URL: %w", err)
	}

	q := u.Query()
	for _, param := range ormOnlyParams {
		q.Del(param)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// New connects to Postgres and verifies the connection. The pgvector type
// is registered on every pooled connection for embedding scans.
func New(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	cleaned, err := CleanDatabaseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logging.Info().Int("max_conns", cfg.MaxConns).Msg("database connected")
	return &DB{Pool: pool}, nil
}

// Close releases the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// Ping checks connectivity. Backs the readiness probe.
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
