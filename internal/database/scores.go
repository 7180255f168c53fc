// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/nichescout/nichescout/internal/metrics"
	"github.com/nichescout/nichescout/internal/models"
)

// ScoreRepository handles video_scores persistence and the scoring-input
// snapshot joins.
type ScoreRepository struct {
	db *DB
}

// NewScoreRepository creates a ScoreRepository.
func NewScoreRepository(db *DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// ScoringRow is the joined input for scoring one video: its latest
// snapshot, the snapshots just before the 24h and 7d horizons, and the
// channel's size and baseline.
type ScoringRow struct {
	VideoID          string
	ChannelID        string
	PublishedAt      time.Time
	SubscriberCount  *int64
	ChannelMedianVPD *float64
	LatestViews      int64
	LatestCapturedAt time.Time
	Views24hAgo      *int64
	Views7dAgo       *int64
}

// FetchVideosForScoring returns scoring inputs for every video in the
// window that has at least one snapshot.
func (r *ScoreRepository) FetchVideosForScoring(ctx context.Context, window models.Window) ([]ScoringRow, error) {
	start := time.Now()
	query := `
		WITH latest_snapshots AS (
			SELECT DISTINCT ON (video_id) video_id, view_count, captured_at
			FROM video_stat_snapshots
			ORDER BY video_id, captured_at DESC
		),
		snapshots_24h_ago AS (
			SELECT DISTINCT ON (video_id) video_id, view_count
			FROM video_stat_snapshots
			WHERE captured_at < now() - INTERVAL '24 hours'
			ORDER BY video_id, captured_at DESC
		),
		snapshots_7d_ago AS (
			SELECT DISTINCT ON (video_id) video_id, view_count
			FROM video_stat_snapshots
			WHERE captured_at < now() - INTERVAL '7 days'
			ORDER BY video_id, captured_at DESC
		)
		SELECT v.video_id, v.channel_id, v.published_at,
		       c.subscriber_count, c.median_views_per_day,
		       ls.view_count, ls.captured_at,
		       s24.view_count, s7.view_count
		FROM discovered_videos v
		JOIN latest_snapshots ls ON ls.video_id = v.video_id
		LEFT JOIN snapshots_24h_ago s24 ON s24.video_id = v.video_id
		LEFT JOIN snapshots_7d_ago s7 ON s7.video_id = v.video_id
		LEFT JOIN channel_profiles_lite c ON c.channel_id = v.channel_id
		WHERE v.published_at > now() - make_interval(days => $1)
	`

	rows, err := r.db.Pool.Query(ctx, query, window.Days())
	metrics.ObserveDBQuery("select", "video_scores", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch videos for scoring: %w", err)
	}
	defer rows.Close()

	var out []ScoringRow
	for rows.Next() {
		var sr ScoringRow
		if err := rows.Scan(&sr.VideoID, &sr.ChannelID, &sr.PublishedAt,
			&sr.SubscriberCount, &sr.ChannelMedianVPD,
			&sr.LatestViews, &sr.LatestCapturedAt,
			&sr.Views24hAgo, &sr.Views7dAgo); err != nil {
			return nil, fmt.Errorf("failed to scan scoring row: %w", err)
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// Upsert writes one score keyed by (video_id, window).
func (r *ScoreRepository) Upsert(ctx context.Context, s *models.VideoScore) error {
	start := time.Now()
	query := `
		INSERT INTO video_scores (
			video_id, "window", view_count, views_per_day, velocity_24h, velocity_7d,
			acceleration, breakout_by_subs, breakout_by_baseline, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (video_id, "window") DO UPDATE SET
			view_count           = EXCLUDED.view_count,
			views_per_day        = EXCLUDED.views_per_day,
			velocity_24h         = EXCLUDED.velocity_24h,
			velocity_7d          = EXCLUDED.velocity_7d,
			acceleration         = EXCLUDED.acceleration,
			breakout_by_subs     = EXCLUDED.breakout_by_subs,
			breakout_by_baseline = EXCLUDED.breakout_by_baseline,
			computed_at          = now()
	`

	_, err := r.db.Pool.Exec(ctx, query,
		s.VideoID, s.Window, s.ViewCount, s.ViewsPerDay, s.Velocity24h, s.Velocity7d,
		s.Acceleration, s.BreakoutBySubs, s.BreakoutByBaseline,
	)
	metrics.ObserveDBQuery("upsert", "video_scores", start, err)
	if err != nil {
		return fmt.Errorf("failed to upsert score for %s: %w", s.VideoID, err)
	}
	metrics.ScoresWrittenTotal.WithLabelValues(string(s.Window)).Inc()
	return nil
}

// TopPerformer is one high-breakout video title for phrase extraction.
type TopPerformer struct {
	VideoID        string
	Title          string
	BreakoutBySubs *float64
	Velocity24h    *float64
}

// FetchTopPerformers returns the highest-breakout videos in the window
// that have a measured velocity, best first.
func (r *ScoreRepository) FetchTopPerformers(ctx context.Context, window models.Window, limit int) ([]TopPerformer, error) {
	start := time.Now()
	query := `
		SELECT v.video_id, v.title, s.breakout_by_subs, s.velocity_24h
		FROM video_scores s
		JOIN discovered_videos v ON v.video_id = s.video_id
		WHERE s.window = $1 AND s.velocity_24h IS NOT NULL
		ORDER BY s.breakout_by_subs DESC NULLS LAST, s.velocity_24h DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, window, limit)
	metrics.ObserveDBQuery("select", "video_scores", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top performers: %w", err)
	}
	defer rows.Close()

	var out []TopPerformer
	for rows.Next() {
		var tp TopPerformer
		if err := rows.Scan(&tp.VideoID, &tp.Title, &tp.BreakoutBySubs, &tp.Velocity24h); err != nil {
			return nil, fmt.Errorf("failed to scan top performer: %w", err)
		}
		out = append(out, tp)
	}
	return out, rows.Err()
}
