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

// ChannelRepository handles channel_profiles_lite persistence and the
// baseline rollup.
type ChannelRepository struct {
	db *DB
}

// NewChannelRepository creates a ChannelRepository.
func NewChannelRepository(db *DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// Upsert inserts or refreshes a channel profile from platform metadata.
// Baselines are left untouched; ComputeBaselines owns those columns.
func (r *ChannelRepository) Upsert(ctx context.Context, c *models.Channel) error {
	start := time.Now()
	query := `
		INSERT INTO channel_profiles_lite (channel_id, title, subscriber_count, channel_published_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (channel_id) DO UPDATE SET
			title                = EXCLUDED.title,
			subscriber_count     = EXCLUDED.subscriber_count,
			channel_published_at = EXCLUDED.channel_published_at,
			last_refreshed_at    = now()
	`

	_, err := r.db.Pool.Exec(ctx, query, c.ChannelID, c.Title, c.SubscriberCount, c.ChannelPublishedAt)
	metrics.ObserveDBQuery("upsert", "channel_profiles_lite", start, err)
	if err != nil {
		return fmt.Errorf("failed to upsert channel %s: %w", c.ChannelID, err)
	}
	return nil
}

// GetFreshChannelIDs returns the subset of the given channels refreshed
// within maxAge. Callers refetch only the stale remainder.
func (r *ChannelRepository) GetFreshChannelIDs(ctx context.Context, channelIDs []string, maxAge time.Duration) (map[string]bool, error) {
	fresh := make(map[string]bool, len(channelIDs))
	if len(channelIDs) == 0 {
		return fresh, nil
	}

	start := time.Now()
	query := `
		SELECT channel_id FROM channel_profiles_lite
		WHERE channel_id = ANY($1) AND last_refreshed_at > now() - $2::interval
	`

	rows, err := r.db.Pool.Query(ctx, query, channelIDs, maxAge)
	metrics.ObserveDBQuery("select", "channel_profiles_lite", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fresh channel ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan channel id: %w", err)
		}
		fresh[id] = true
	}
	return fresh, rows.Err()
}

// GetBaselines returns channels keyed by ID with their baseline columns,
// for the scoring stage's breakout-by-baseline metric.
func (r *ChannelRepository) GetBaselines(ctx context.Context, channelIDs []string) (map[string]*models.Channel, error) {
	out := make(map[string]*models.Channel, len(channelIDs))
	if len(channelIDs) == 0 {
		return out, nil
	}

	start := time.Now()
	query := `
		SELECT channel_id, title, subscriber_count, median_velocity_24h,
		       median_views_per_day, video_count_for_baseline
		FROM channel_profiles_lite
		WHERE channel_id = ANY($1)
	`

	rows, err := r.db.Pool.Query(ctx, query, channelIDs)
	metrics.ObserveDBQuery("select", "channel_profiles_lite", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel baselines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Channel
		if err := rows.Scan(&c.ChannelID, &c.Title, &c.SubscriberCount,
			&c.MedianVelocity24h, &c.MedianViewsPerDay, &c.VideoCountForBaseline); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		out[c.ChannelID] = &c
	}
	return out, rows.Err()
}

// ComputeBaselines rolls up per-channel medians from 7d scores of videos
// published in the last 90 days. Channels with fewer than three scored
// videos keep their previous baselines.
func (r *ChannelRepository) ComputeBaselines(ctx context.Context) (int, error) {
	start := time.Now()
	query := `
		WITH channel_stats AS (
			SELECT v.channel_id,
			       PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY s.velocity_24h) AS median_velocity,
			       PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY s.views_per_day) AS median_vpd,
			       COUNT(*) AS n
			FROM video_scores s
			JOIN discovered_videos v ON v.video_id = s.video_id
			WHERE s.window = '7d'
			  AND s.velocity_24h IS NOT NULL
			  AND v.published_at > now() - INTERVAL '90 days'
			GROUP BY v.channel_id
			HAVING COUNT(*) >= 3
		)
		UPDATE channel_profiles_lite c
		SET median_velocity_24h      = cs.median_velocity,
		    median_views_per_day     = cs.median_vpd,
		    video_count_for_baseline = cs.n
		FROM channel_stats cs
		WHERE c.channel_id = cs.channel_id
	`

	tag, err := r.db.Pool.Exec(ctx, query)
	metrics.ObserveDBQuery("update", "channel_profiles_lite", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to compute channel baselines: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
