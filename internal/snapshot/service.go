// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

// Package snapshot runs the tiered re-sampling cycle: lease due videos,
// refetch their statistics, append snapshots, and refresh stale channel
// profiles.
package snapshot

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nichescout/nichescout/internal/database"
	"github.com/nichescout/nichescout/internal/logging"
	"github.com/nichescout/nichescout/internal/metrics"
	"github.com/nichescout/nichescout/internal/models"
	"github.com/nichescout/nichescout/internal/platform"
)

// channelMaxAge is how long a channel profile stays fresh before the
// snapshot cycle refetches it.
const channelMaxAge = 24 * time.Hour

// StatsClient is the platform capability the snapshot cycle needs.
type StatsClient interface {
	GetVideoStatsBatched(ctx context.Context, ids []string) (map[string]platform.Stats, error)
	GetChannelInfoBatched(ctx context.Context, ids []string) (map[string]platform.ChannelInfo, error)
}

// SnapshotStore leases due rows and appends snapshots inside one
// transaction, so a crashed run releases its leases at rollback.
type SnapshotStore interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	LeaseDueVideos(ctx context.Context, tx pgx.Tx, intervals database.TierIntervals, maxPerRun int) ([]database.DueVideo, error)
	InsertTx(ctx context.Context, tx pgx.Tx, s *models.Snapshot) error
}

// ChannelStore persists channel profiles and their baseline rollup.
type ChannelStore interface {
	Upsert(ctx context.Context, c *models.Channel) error
	GetFreshChannelIDs(ctx context.Context, channelIDs []string, maxAge time.Duration) (map[string]bool, error)
	ComputeBaselines(ctx context.Context) (int, error)
}

// RunStats summarizes one snapshot cycle.
type RunStats struct {
	TotalDue          int            `json:"total_due"`
	TierCounts        map[string]int `json:"tier_counts"`
	Snapshotted       int            `json:"snapshotted"`
	ChannelsRefreshed int            `json:"channels_refreshed"`
	BaselinesUpdated  int            `json:"baselines_updated"`
	QuotaExhausted    bool           `json:"quota_exhausted"`
}

// Service coordinates one snapshot cycle end to end.
type Service struct {
	client    StatsClient
	snapshots SnapshotStore
	channels  ChannelStore
	intervals database.TierIntervals
	maxPerRun int
}

// NewService creates a snapshot Service.
func NewService(client StatsClient, snapshots SnapshotStore, channels ChannelStore,
	intervals database.TierIntervals, maxPerRun int) *Service {
	return &Service{
		client:    client,
		snapshots: snapshots,
		channels:  channels,
		intervals: intervals,
		maxPerRun: maxPerRun,
	}
}

// Run executes one cycle: lease, fetch, insert, commit, then channel
// refresh and baseline rollup outside the lease transaction. Quota
// exhaustion during the stats fetch keeps whatever was fetched and skips
// the channel refresh.
func (s *Service) Run(ctx context.Context) (RunStats, error) {
	stats := RunStats{TierCounts: make(map[string]int)}

	tx, err := s.snapshots.Begin(ctx)
	if err != nil {
		return stats, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	due, err := s.snapshots.LeaseDueVideos(ctx, tx, s.intervals, s.maxPerRun)
	if err != nil {
		return stats, err
	}
	stats.TotalDue = len(due)
	for _, d := range due {
		stats.TierCounts[d.Tier]++
	}

	if len(due) == 0 {
		logging.Ctx(ctx).Info().Msg("no videos due for snapshot")
		return stats, tx.Commit(ctx)
	}

	logging.Ctx(ctx).Info().
		Int("due", len(due)).
		Int("tier_a", stats.TierCounts["A"]).
		Int("tier_b", stats.TierCounts["B"]).
		Int("tier_c", stats.TierCounts["C"]).
		Msg("leased due videos")

	ids := make([]string, 0, len(due))
	for _, d := range due {
		ids = append(ids, d.VideoID)
	}

	videoStats, err := s.client.GetVideoStatsBatched(ctx, ids)
	if err != nil {
		if !platform.IsQuotaExceeded(err) {
			return stats, err
		}
		stats.QuotaExhausted = true
		logging.Ctx(ctx).Warn().
			Int("fetched", len(videoStats)).
			Msg("quota exhausted during stats fetch, keeping partial batch")
	}

	for _, d := range due {
		vs, ok := videoStats[d.VideoID]
		if !ok {
			continue
		}
		snap := &models.Snapshot{
			VideoID:      d.VideoID,
			ViewCount:    vs.ViewCount,
			LikeCount:    vs.LikeCount,
			CommentCount: vs.CommentCount,
		}
		if err := s.snapshots.InsertTx(ctx, tx, snap); err != nil {
			return stats, err
		}
		stats.Snapshotted++
	}

	if err := tx.Commit(ctx); err != nil {
		return stats, err
	}

	logging.Ctx(ctx).Info().Int("snapshotted", stats.Snapshotted).Msg("snapshots written")

	if !stats.QuotaExhausted {
		refreshed, err := s.refreshChannels(ctx, due)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Msg("channel refresh failed")
		}
		stats.ChannelsRefreshed = refreshed
	}

	if stats.Snapshotted > 0 {
		updated, err := s.channels.ComputeBaselines(ctx)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Msg("baseline rollup failed")
		} else {
			stats.BaselinesUpdated = updated
		}
	}

	return stats, nil
}

// refreshChannels refetches profiles for leased channels whose stored
// profile is older than channelMaxAge.
func (s *Service) refreshChannels(ctx context.Context, due []database.DueVideo) (int, error) {
	seen := make(map[string]struct{}, len(due))
	var channelIDs []string
	for _, d := range due {
		if _, ok := seen[d.ChannelID]; ok {
			continue
		}
		seen[d.ChannelID] = struct{}{}
		channelIDs = append(channelIDs, d.ChannelID)
	}

	fresh, err := s.channels.GetFreshChannelIDs(ctx, channelIDs, channelMaxAge)
	if err != nil {
		return 0, err
	}

	var stale []string
	for _, id := range channelIDs {
		if !fresh[id] {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	logging.Ctx(ctx).Info().Int("stale", len(stale)).Msg("refreshing stale channels")

	info, err := s.client.GetChannelInfoBatched(ctx, stale)
	if err != nil && !platform.IsQuotaExceeded(err) {
		return 0, err
	}

	refreshed := 0
	for _, ci := range info {
		ch := &models.Channel{
			ChannelID:          ci.ChannelID,
			Title:              ci.Title,
			SubscriberCount:    ci.SubscriberCount,
			ChannelPublishedAt: ci.PublishedAt,
		}
		if err := s.channels.Upsert(ctx, ch); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("channel_id", ci.ChannelID).Msg("channel upsert failed")
			continue
		}
		refreshed++
		metrics.ChannelsRefreshedTotal.Inc()
	}
	return refreshed, nil
}
