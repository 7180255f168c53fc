// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nichescout/nichescout/internal/metrics"
	"github.com/nichescout/nichescout/internal/models"
)

// SnapshotRepository handles the append-only video_stat_snapshots table
// and the tiered due-selection with row leasing.
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a SnapshotRepository.
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// DueVideo is one leased snapshot candidate.
type DueVideo struct {
	VideoID        string
	ChannelID      string
	Tier           string
	LastSnapshotAt *time.Time
}

// TierIntervals holds the per-tier minimum hours between snapshots.
type TierIntervals struct {
	AHours int
	BHours int
	CHours int
}

// Begin opens a transaction for a lease-and-snapshot cycle. Row locks
// acquired by LeaseDueVideos hold until Commit or Rollback; a crashed run
// releases its leases at rollback.
func (r *SnapshotRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	return tx, nil
}

// LeaseDueVideos computes tier and due-ness in one atomic read and leases
// up to maxPerRun rows with FOR UPDATE SKIP LOCKED, so concurrent workers
// select disjoint sets.
//
// Tier assignment is fixed policy: A for videos under 48 hours old or with
// velocity_24h above 10000, B under 7 days or velocity above 1000, C
// otherwise, scoped to videos under 90 days old. Only the per-tier
// re-sample intervals are configurable.
func (r *SnapshotRepository) LeaseDueVideos(ctx context.Context, tx pgx.Tx, intervals TierIntervals, maxPerRun int) ([]DueVideo, error) {
	start := time.Now()
	query := `
		WITH video_tiers AS (
			SELECT v.video_id,
				CASE
					WHEN v.published_at > now() - INTERVAL '48 hours' THEN 'A'
					WHEN COALESCE(s.velocity_24h, 0) > 10000 THEN 'A'
					WHEN v.published_at > now() - INTERVAL '7 days' THEN 'B'
					WHEN COALESCE(s.velocity_24h, 0) > 1000 THEN 'B'
					ELSE 'C'
				END AS tier,
				(SELECT MAX(sn.captured_at)
				 FROM video_stat_snapshots sn
				 WHERE sn.video_id = v.video_id) AS last_snapshot_at
			FROM discovered_videos v
			LEFT JOIN video_scores s ON s.video_id = v.video_id AND s.window = '7d'
			WHERE v.published_at > now() - INTERVAL '90 days'
		)
		SELECT v.video_id, v.channel_id, t.tier, t.last_snapshot_at
		FROM discovered_videos v
		JOIN video_tiers t ON t.video_id = v.video_id
		WHERE t.last_snapshot_at IS NULL
		   OR (t.tier = 'A' AND t.last_snapshot_at < now() - make_interval(hours => $1))
		   OR (t.tier = 'B' AND t.last_snapshot_at < now() - make_interval(hours => $2))
		   OR (t.tier = 'C' AND t.last_snapshot_at < now() - make_interval(hours => $3))
		ORDER BY
			CASE t.tier WHEN 'A' THEN 1 WHEN 'B' THEN 2 ELSE 3 END,
			t.last_snapshot_at ASC NULLS FIRST
		LIMIT $4
		FOR UPDATE OF v SKIP LOCKED
	`

	rows, err := tx.Query(ctx, query, intervals.AHours, intervals.BHours, intervals.CHours, maxPerRun)
	metrics.ObserveDBQuery("lease", "video_stat_snapshots", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to lease due videos: %w", err)
	}
	defer rows.Close()

	var due []DueVideo
	for rows.Next() {
		var d DueVideo
		if err := rows.Scan(&d.VideoID, &d.ChannelID, &d.Tier, &d.LastSnapshotAt); err != nil {
			return nil, fmt.Errorf("failed to scan due video: %w", err)
		}
		due = append(due, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read due videos: %w", err)
	}

	for _, d := range due {
		metrics.SnapshotLeasedTotal.WithLabelValues(d.Tier).Inc()
	}
	return due, nil
}

// InsertTx appends one snapshot inside the leasing transaction.
func (r *SnapshotRepository) InsertTx(ctx context.Context, tx pgx.Tx, s *models.Snapshot) error {
	start := time.Now()
	query := `
		INSERT INTO video_stat_snapshots (video_id, captured_at, view_count, like_count, comment_count)
		VALUES ($1, now(), $2, $3, $4)
	`

	_, err := tx.Exec(ctx, query, s.VideoID, s.ViewCount, s.LikeCount, s.CommentCount)
	metrics.ObserveDBQuery("insert", "video_stat_snapshots", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot for %s: %w", s.VideoID, err)
	}
	metrics.SnapshotsWrittenTotal.Inc()
	return nil
}
