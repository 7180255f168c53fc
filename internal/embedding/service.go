// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package embedding

import (
	"context"

	"github.com/nichescout/nichescout/internal/database"
	"github.com/nichescout/nichescout/internal/logging"
	"github.com/nichescout/nichescout/internal/models"
)

// defaultLimit caps the videos embedded per pass.
const defaultLimit = 1000

// VideoStore provides titles that still need embedding.
type VideoStore interface {
	FetchVideosWithoutEmbeddings(ctx context.Context, window models.Window, limit int) ([]database.VideoTitle, error)
}

// EmbeddingStore persists embeddings.
type EmbeddingStore interface {
	Upsert(ctx context.Context, e *models.Embedding) error
}

// RunStats summarizes one embedding pass.
type RunStats struct {
	TotalFound int `json:"total_found"`
	Embedded   int `json:"embedded"`
	Failed     int `json:"failed"`
}

// Service embeds video titles batch by batch. Idempotent: already
// embedded videos are excluded by the fetch.
type Service struct {
	embedder   Embedder
	videos     VideoStore
	embeddings EmbeddingStore
	batchSize  int
	limit      int
}

// NewService creates an embedding Service.
func NewService(embedder Embedder, videos VideoStore, embeddings EmbeddingStore, batchSize int) *Service {
	return &Service{
		embedder:   embedder,
		videos:     videos,
		embeddings: embeddings,
		batchSize:  batchSize,
		limit:      defaultLimit,
	}
}

// Run embeds all unembedded videos in the window. A failed batch is
// logged and skipped; later batches still run.
func (s *Service) Run(ctx context.Context, window models.Window) (RunStats, error) {
	stats := RunStats{}

	videos, err := s.videos.FetchVideosWithoutEmbeddings(ctx, window, s.limit)
	if err != nil {
		return stats, err
	}
	stats.TotalFound = len(videos)
	if len(videos) == 0 {
		logging.Ctx(ctx).Info().Str("window", string(window)).Msg("no videos need embedding")
		return stats, nil
	}

	logging.Ctx(ctx).Info().
		Str("window", string(window)).
		Int("videos", len(videos)).
		Str("model", s.embedder.ModelName()).
		Msg("embedding video titles")

	for start := 0; start < len(videos); start += s.batchSize {
		end := start + s.batchSize
		if end > len(videos) {
			end = len(videos)
		}
		batch := videos[start:end]

		texts := make([]string, len(batch))
		for i, v := range batch {
			texts[i] = v.Title
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			logging.Ctx(ctx).Error().Err(err).
				Int("batch_start", start).
				Msg("embed batch failed, skipping")
			stats.Failed += len(batch)
			continue
		}

		for i, v := range batch {
			rec := &models.Embedding{
				VideoID: v.VideoID,
				Vector:  vectors[i],
				Model:   s.embedder.ModelName(),
			}
			if err := s.embeddings.Upsert(ctx, rec); err != nil {
				logging.Ctx(ctx).Error().Err(err).Str("video_id", v.VideoID).Msg("embedding upsert failed")
				stats.Failed++
				continue
			}
			stats.Embedded++
		}
	}

	logging.Ctx(ctx).Info().
		Str("window", string(window)).
		Int("embedded", stats.Embedded).
		Msg("embedding pass complete")
	return stats, nil
}
