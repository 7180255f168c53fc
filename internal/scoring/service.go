// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package scoring

import (
	"context"
	"time"

	"github.com/nichescout/nichescout/internal/database"
	"github.com/nichescout/nichescout/internal/logging"
	"github.com/nichescout/nichescout/internal/models"
)

// ScoreStore provides scoring inputs and persists results.
type ScoreStore interface {
	FetchVideosForScoring(ctx context.Context, window models.Window) ([]database.ScoringRow, error)
	Upsert(ctx context.Context, s *models.VideoScore) error
}

// RunStats summarizes one scoring pass.
type RunStats struct {
	TotalFound int `json:"total_found"`
	Scored     int `json:"scored"`
	Failed     int `json:"failed"`
}

// Service scores every snapshotted video in a window.
type Service struct {
	scores ScoreStore
	now    func() time.Time
}

// NewService creates a scoring Service.
func NewService(scores ScoreStore) *Service {
	return &Service{scores: scores, now: time.Now}
}

// Run computes and upserts scores for the window. Per-video failures are
// logged and skipped; the pass continues.
//
// Acceleration stays nil: the schema carries the column but no stage
// populates it.
func (s *Service) Run(ctx context.Context, window models.Window) (RunStats, error) {
	stats := RunStats{}

	rows, err := s.scores.FetchVideosForScoring(ctx, window)
	if err != nil {
		return stats, err
	}
	stats.TotalFound = len(rows)
	if len(rows) == 0 {
		logging.Ctx(ctx).Info().Str("window", string(window)).Msg("no videos to score")
		return stats, nil
	}

	now := s.now().UTC()
	logging.Ctx(ctx).Info().
		Str("window", string(window)).
		Int("videos", len(rows)).
		Msg("computing video scores")

	for _, row := range rows {
		vpd := ViewsPerDay(row.LatestViews, row.PublishedAt, now)
		score := &models.VideoScore{
			VideoID:            row.VideoID,
			Window:             window,
			ViewCount:          row.LatestViews,
			ViewsPerDay:        vpd,
			Velocity24h:        Velocity(row.LatestViews, row.Views24hAgo),
			Velocity7d:         Velocity(row.LatestViews, row.Views7dAgo),
			BreakoutBySubs:     BreakoutBySubs(vpd, row.SubscriberCount),
			BreakoutByBaseline: BreakoutByBaseline(vpd, row.ChannelMedianVPD),
		}
		if err := s.scores.Upsert(ctx, score); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("video_id", row.VideoID).Msg("score upsert failed")
			stats.Failed++
			continue
		}
		stats.Scored++
	}

	logging.Ctx(ctx).Info().
		Str("window", string(window)).
		Int("scored", stats.Scored).
		Msg("scoring pass complete")
	return stats, nil
}
