// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nichescout/nichescout/internal/metrics"
	"github.com/nichescout/nichescout/internal/models"
)

// StateRepository handles per-feeder ingestion_state rows. Cursor writes
// are last-writer-wins; an occasional missed advance is acceptable.
type StateRepository struct {
	db *DB
}

// NewStateRepository creates a StateRepository.
func NewStateRepository(db *DB) *StateRepository {
	return &StateRepository{db: db}
}

// GetCursor returns the feeder's cursor position, 0 when never run.
func (r *StateRepository) GetCursor(ctx context.Context, feeder string) (int, error) {
	start := time.Now()
	query := `SELECT cursor_position FROM ingestion_state WHERE feeder = $1`

	var cursor int
	err := r.db.Pool.QueryRow(ctx, query, feeder).Scan(&cursor)
	metrics.ObserveDBQuery("select", "ingestion_state", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to fetch cursor for %s: %w", feeder, err)
	}
	return cursor, nil
}

// SaveCursor advances the feeder's cursor and accumulates its counters.
func (r *StateRepository) SaveCursor(ctx context.Context, feeder string, cursor, videosAdded int) error {
	start := time.Now()
	query := `
		INSERT INTO ingestion_state (feeder, cursor_position, last_run_at, videos_added_last_run, total_videos_added)
		VALUES ($1, $2, now(), $3, $3)
		ON CONFLICT (feeder) DO UPDATE SET
			cursor_position       = EXCLUDED.cursor_position,
			last_run_at           = now(),
			videos_added_last_run = EXCLUDED.videos_added_last_run,
			total_videos_added    = ingestion_state.total_videos_added + EXCLUDED.videos_added_last_run
	`

	_, err := r.db.Pool.Exec(ctx, query, feeder, cursor, videosAdded)
	metrics.ObserveDBQuery("upsert", "ingestion_state", start, err)
	if err != nil {
		return fmt.Errorf("failed to save cursor for %s: %w", feeder, err)
	}
	return nil
}

// Get returns the full state row for a feeder, or nil when never run.
func (r *StateRepository) Get(ctx context.Context, feeder string) (*models.IngestionState, error) {
	start := time.Now()
	query := `
		SELECT feeder, cursor_position, last_run_at, videos_added_last_run, total_videos_added
		FROM ingestion_state WHERE feeder = $1
	`

	var s models.IngestionState
	err := r.db.Pool.QueryRow(ctx, query, feeder).Scan(
		&s.Feeder, &s.CursorPosition, &s.LastRunAt, &s.VideosAddedLastRun, &s.TotalVideosAdded)
	metrics.ObserveDBQuery("select", "ingestion_state", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch state for %s: %w", feeder, err)
	}
	return &s, nil
}
