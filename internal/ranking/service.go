// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package ranking

import (
	"context"

	"github.com/nichescout/nichescout/internal/database"
	"github.com/nichescout/nichescout/internal/logging"
	"github.com/nichescout/nichescout/internal/models"
)

// ClusterStore provides member aggregates and persists the computed
// metrics.
type ClusterStore interface {
	FetchClustersWithScores(ctx context.Context, window models.Window) ([]database.ClusterAggregates, error)
	UpdateMetrics(ctx context.Context, clusterID string, medianVelocity, avgSubs, concentration, opportunity *float64) error
}

// RunStats summarizes one ranking pass.
type RunStats struct {
	TotalFound int `json:"total_found"`
	Ranked     int `json:"ranked"`
	Failed     int `json:"failed"`
}

// Service ranks every cluster in a window by opportunity.
type Service struct {
	clusters ClusterStore
}

// NewService creates a ranking Service.
func NewService(clusters ClusterStore) *Service {
	return &Service{clusters: clusters}
}

// Run aggregates member scores per cluster and overwrites the cluster's
// metric fields. Per-cluster failures are logged and skipped.
func (s *Service) Run(ctx context.Context, window models.Window) (RunStats, error) {
	stats := RunStats{}

	clusters, err := s.clusters.FetchClustersWithScores(ctx, window)
	if err != nil {
		return stats, err
	}
	stats.TotalFound = len(clusters)
	if len(clusters) == 0 {
		logging.Ctx(ctx).Info().Str("window", string(window)).Msg("no clusters to rank")
		return stats, nil
	}

	logging.Ctx(ctx).Info().
		Str("window", string(window)).
		Int("clusters", len(clusters)).
		Msg("ranking clusters")

	for _, c := range clusters {
		medianVelocity := MedianVelocity(c.Velocities)
		avgSubs := AvgSubscribers(c.SubscriberCounts)
		concentration := WinnerConcentration(c.ViewCounts)
		opportunity := OpportunityScore(medianVelocity, avgSubs, &concentration)

		if err := s.clusters.UpdateMetrics(ctx, c.ClusterID,
			medianVelocity, avgSubs, &concentration, opportunity); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("cluster_id", c.ClusterID).Msg("metric update failed")
			stats.Failed++
			continue
		}
		stats.Ranked++
	}

	logging.Ctx(ctx).Info().
		Str("window", string(window)).
		Int("ranked", stats.Ranked).
		Msg("ranking pass complete")
	return stats, nil
}
