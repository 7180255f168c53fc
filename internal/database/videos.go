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

// VideoRepository handles discovered_videos persistence.
type VideoRepository struct {
	db *DB
}

// NewVideoRepository creates a VideoRepository.
func NewVideoRepository(db *DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// Upsert inserts a discovered video or refreshes its mutable metadata.
// Returns true when the row was newly inserted. (xmax = 0) distinguishes
// an insert from a conflict update on the same statement.
func (r *VideoRepository) Upsert(ctx context.Context, v *models.DiscoveredVideo) (bool, error) {
	start := time.Now()
	query := `
		INSERT INTO discovered_videos (
			video_id, channel_id, channel_title, title, thumbnail_url,
			published_at, feeder, seed, duration_seconds, language, tags
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (video_id) DO UPDATE SET
			last_seen_at  = now(),
			title         = EXCLUDED.title,
			thumbnail_url = EXCLUDED.thumbnail_url,
			channel_title = EXCLUDED.channel_title
		RETURNING (xmax = 0) AS inserted
	`

	var inserted bool
	err := r.db.Pool.QueryRow(ctx, query,
		v.VideoID, v.ChannelID, v.ChannelTitle, v.Title, v.ThumbnailURL,
		v.PublishedAt, v.Feeder, v.Seed, v.Duration, v.Language, v.Tags,
	).Scan(&inserted)
	metrics.ObserveDBQuery("upsert", "discovered_videos", start, err)
	if err != nil {
		return false, fmt.Errorf("failed to upsert video %s: %w", v.VideoID, err)
	}
	return inserted, nil
}

// GetExistingVideoIDs returns IDs first seen within the given number of
// days. Gating preloads this set once per batch for duplicate rejection.
func (r *VideoRepository) GetExistingVideoIDs(ctx context.Context, sinceDays int) (map[string]bool, error) {
	start := time.Now()
	query := `
		SELECT video_id FROM discovered_videos
		WHERE first_seen_at > now() - make_interval(days => $1)
	`

	rows, err := r.db.Pool.Query(ctx, query, sinceDays)
	metrics.ObserveDBQuery("select", "discovered_videos", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch existing video ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan video id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// GetChannelCounts24h returns, per channel, how many of its videos were
// first seen in the last 24 hours. Seeds the gating per-channel cap.
func (r *VideoRepository) GetChannelCounts24h(ctx context.Context, channelIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(channelIDs))
	if len(channelIDs) == 0 {
		return counts, nil
	}

	start := time.Now()
	query := `
		SELECT channel_id, COUNT(*) FROM discovered_videos
		WHERE channel_id = ANY($1) AND first_seen_at > now() - INTERVAL '24 hours'
		GROUP BY channel_id
	`

	rows, err := r.db.Pool.Query(ctx, query, channelIDs)
	metrics.ObserveDBQuery("select", "discovered_videos", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan channel count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// GetUniqueChannelIDs returns the most recently seen distinct channels,
// newest first. Feeds the free-feed expansion feeder.
func (r *VideoRepository) GetUniqueChannelIDs(ctx context.Context, limit int) ([]string, error) {
	start := time.Now()
	query := `
		SELECT channel_id FROM (
			SELECT DISTINCT ON (channel_id) channel_id, first_seen_at
			FROM discovered_videos
			WHERE first_seen_at > now() - INTERVAL '30 days'
			ORDER BY channel_id, first_seen_at DESC
		) c
		ORDER BY first_seen_at DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	metrics.ObserveDBQuery("select", "discovered_videos", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unique channel ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan channel id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// VideoTitle pairs a video ID with its title.
type VideoTitle struct {
	VideoID string
	Title   string
}

// FetchVideosWithoutEmbeddings returns videos in the window that have no
// embedding yet, newest first.
func (r *VideoRepository) FetchVideosWithoutEmbeddings(ctx context.Context, window models.Window, limit int) ([]VideoTitle, error) {
	start := time.Now()
	query := `
		SELECT v.video_id, v.title
		FROM discovered_videos v
		LEFT JOIN video_embeddings e ON e.video_id = v.video_id
		WHERE e.video_id IS NULL
		  AND v.published_at > now() - make_interval(days => $1)
		ORDER BY v.first_seen_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, window.Days(), limit)
	metrics.ObserveDBQuery("select", "discovered_videos", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch videos without embeddings: %w", err)
	}
	defer rows.Close()

	var out []VideoTitle
	for rows.Next() {
		var vt VideoTitle
		if err := rows.Scan(&vt.VideoID, &vt.Title); err != nil {
			return nil, fmt.Errorf("failed to scan video title: %w", err)
		}
		out = append(out, vt)
	}
	return out, rows.Err()
}
