// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package database

import (
	"context"
	"fmt"
	"strings"
)

// schemaStatements bootstrap the pipeline tables. Statements are idempotent
// so every worker can run them at startup.
//
// video_stat_snapshots is append-only; the (video_id, captured_at DESC)
// key serves both "latest" and "just-before-T" lookups.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,

	`CREATE TABLE IF NOT EXISTS discovered_videos (
		video_id         TEXT PRIMARY KEY,
		channel_id       TEXT NOT NULL,
		channel_title    TEXT NOT NULL DEFAULT '',
		title            TEXT NOT NULL,
		thumbnail_url    TEXT NOT NULL DEFAULT '',
		published_at     TIMESTAMPTZ NOT NULL,
		feeder           TEXT NOT NULL,
		seed             TEXT,
		duration_seconds INTEGER,
		language         TEXT,
		tags             TEXT[],
		first_seen_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_seen_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_discovered_videos_channel
		ON discovered_videos (channel_id)`,
	`CREATE INDEX IF NOT EXISTS idx_discovered_videos_published
		ON discovered_videos (published_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_discovered_videos_first_seen
		ON discovered_videos (first_seen_at DESC)`,

	`CREATE TABLE IF NOT EXISTS video_stat_snapshots (
		video_id      TEXT NOT NULL REFERENCES discovered_videos (video_id),
		captured_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		view_count    BIGINT NOT NULL,
		like_count    BIGINT,
		comment_count BIGINT,
		PRIMARY KEY (video_id, captured_at)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_video_captured
		ON video_stat_snapshots (video_id, captured_at DESC)`,

	`CREATE TABLE IF NOT EXISTS channel_profiles_lite (
		channel_id               TEXT PRIMARY KEY,
		title                    TEXT NOT NULL DEFAULT '',
		subscriber_count         BIGINT,
		channel_published_at     TIMESTAMPTZ,
		median_velocity_24h      DOUBLE PRECISION,
		median_views_per_day     DOUBLE PRECISION,
		video_count_for_baseline INTEGER NOT NULL DEFAULT 0,
		first_tracked_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_refreshed_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS video_scores (
		video_id             TEXT NOT NULL REFERENCES discovered_videos (video_id),
		"window"             TEXT NOT NULL,
		view_count           BIGINT NOT NULL,
		views_per_day        DOUBLE PRECISION NOT NULL,
		velocity_24h         DOUBLE PRECISION,
		velocity_7d          DOUBLE PRECISION,
		acceleration         DOUBLE PRECISION,
		breakout_by_subs     DOUBLE PRECISION,
		breakout_by_baseline DOUBLE PRECISION,
		computed_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (video_id, "window")
	)`,
	`CREATE INDEX IF NOT EXISTS idx_video_scores_window
		ON video_scores ("window", breakout_by_subs DESC NULLS LAST)`,

	`CREATE TABLE IF NOT EXISTS video_embeddings (
		video_id    TEXT PRIMARY KEY REFERENCES discovered_videos (video_id),
		embedding   VECTOR(%d) NOT NULL,
		model       TEXT NOT NULL,
		embedded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_video_embeddings_cosine
		ON video_embeddings USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,

	`CREATE TABLE IF NOT EXISTS niche_clusters (
		cluster_id           UUID PRIMARY KEY,
		"window"             TEXT NOT NULL,
		label                TEXT NOT NULL,
		keywords             TEXT[] NOT NULL DEFAULT '{}',
		median_velocity      DOUBLE PRECISION,
		unique_channels      INTEGER NOT NULL DEFAULT 0,
		total_videos         INTEGER NOT NULL DEFAULT 0,
		avg_days_old         INTEGER NOT NULL DEFAULT 0,
		avg_channel_subs     DOUBLE PRECISION,
		winner_concentration DOUBLE PRECISION,
		opportunity_score    DOUBLE PRECISION,
		computed_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_niche_clusters_window
		ON niche_clusters ("window", opportunity_score DESC NULLS LAST)`,

	`CREATE TABLE IF NOT EXISTS niche_cluster_videos (
		cluster_id      UUID NOT NULL REFERENCES niche_clusters (cluster_id) ON DELETE CASCADE,
		video_id        TEXT NOT NULL REFERENCES discovered_videos (video_id),
		rank_in_cluster INTEGER NOT NULL,
		PRIMARY KEY (cluster_id, video_id)
	)`,

	`CREATE TABLE IF NOT EXISTS ingestion_state (
		feeder                TEXT PRIMARY KEY,
		cursor_position       INTEGER NOT NULL DEFAULT 0,
		last_run_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
		videos_added_last_run INTEGER NOT NULL DEFAULT 0,
		total_videos_added    BIGINT NOT NULL DEFAULT 0
	)`,
}

// EnsureSchema creates the pipeline tables if missing. The embedding
// dimension is fixed at bootstrap; changing it requires a migration.
func (db *DB) EnsureSchema(ctx context.Context, embeddingDim int) error {
	for _, stmt := range schemaStatements {
		sql := stmt
		if strings.Contains(sql, "%d") {
			sql = fmt.Sprintf(sql, embeddingDim)
		}
		if _, err := db.Pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("schema bootstrap failed: %w", err)
		}
	}
	return nil
}
