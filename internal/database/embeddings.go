// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/nichescout/nichescout/internal/metrics"
	"github.com/nichescout/nichescout/internal/models"
)

// EmbeddingRepository handles video_embeddings persistence.
type EmbeddingRepository struct {
	db *DB
}

// NewEmbeddingRepository creates an EmbeddingRepository.
func NewEmbeddingRepository(db *DB) *EmbeddingRepository {
	return &EmbeddingRepository{db: db}
}

// Upsert writes one embedding keyed by video_id. Re-embedding with the
// same model overwrites the vector and refreshes embedded_at.
func (r *EmbeddingRepository) Upsert(ctx context.Context, e *models.Embedding) error {
	start := time.Now()
	query := `
		INSERT INTO video_embeddings (video_id, embedding, model, embedded_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (video_id) DO UPDATE SET
			embedding   = EXCLUDED.embedding,
			model       = EXCLUDED.model,
			embedded_at = now()
	`

	_, err := r.db.Pool.Exec(ctx, query, e.VideoID, pgvector.NewVector(e.Vector), e.Model)
	metrics.ObserveDBQuery("upsert", "video_embeddings", start, err)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding for %s: %w", e.VideoID, err)
	}
	metrics.EmbeddingsWrittenTotal.Inc()
	return nil
}

// EmbeddedVideo is one clustering input: the vector plus the title and
// identity fields the labeler and metrics need.
type EmbeddedVideo struct {
	VideoID     string
	ChannelID   string
	Title       string
	PublishedAt time.Time
	Vector      []float32
}

// FetchForWindow returns all embeddings of videos published within the
// window, joined with the fields clustering needs.
func (r *EmbeddingRepository) FetchForWindow(ctx context.Context, window models.Window) ([]EmbeddedVideo, error) {
	start := time.Now()
	query := `
		SELECT e.video_id, v.channel_id, v.title, v.published_at, e.embedding
		FROM video_embeddings e
		JOIN discovered_videos v ON v.video_id = e.video_id
		WHERE v.published_at > now() - make_interval(days => $1)
		ORDER BY e.video_id
	`

	rows, err := r.db.Pool.Query(ctx, query, window.Days())
	metrics.ObserveDBQuery("select", "video_embeddings", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch embeddings for window: %w", err)
	}
	defer rows.Close()

	var out []EmbeddedVideo
	for rows.Next() {
		var ev EmbeddedVideo
		var vec pgvector.Vector
		if err := rows.Scan(&ev.VideoID, &ev.ChannelID, &ev.Title, &ev.PublishedAt, &vec); err != nil {
			return nil, fmt.Errorf("failed to scan embedded video: %w", err)
		}
		ev.Vector = vec.Slice()
		out = append(out, ev)
	}
	return out, rows.Err()
}
