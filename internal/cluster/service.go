// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package cluster

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/nichescout/nichescout/internal/database"
	"github.com/nichescout/nichescout/internal/logging"
	"github.com/nichescout/nichescout/internal/metrics"
	"github.com/nichescout/nichescout/internal/models"
)

// EmbeddingStore provides the clustering inputs.
type EmbeddingStore interface {
	FetchForWindow(ctx context.Context, window models.Window) ([]database.EmbeddedVideo, error)
}

// ClusterStore persists clusters and their memberships.
type ClusterStore interface {
	UpsertWithMembers(ctx context.Context, c *models.Cluster, memberIDs []string) error
	DeleteStale(ctx context.Context, window models.Window, keep []string) (int, error)
}

// RunStats summarizes one clustering pass.
type RunStats struct {
	TotalVideos  int `json:"total_videos"`
	Clusters     int `json:"clusters"`
	NoisePoints  int `json:"noise_points"`
	StaleDeleted int `json:"stale_deleted"`
}

// Service runs the full clustering pass for one window.
type Service struct {
	embeddings EmbeddingStore
	clusters   ClusterStore
	minSize    int
	components int
	neighbors  int
	now        func() time.Time
}

// NewService creates a clustering Service.
func NewService(embeddings EmbeddingStore, clusters ClusterStore, minSize, components, neighbors int) *Service {
	return &Service{
		embeddings: embeddings,
		clusters:   clusters,
		minSize:    minSize,
		components: components,
		neighbors:  neighbors,
		now:        time.Now,
	}
}

// Run normalizes, reduces, and density-clusters the window's embeddings,
// labels each cluster, rewrites memberships, and deletes clusters the
// pass did not reproduce. Idempotent for unchanged inputs: membership
// sets hash to the same cluster IDs.
func (s *Service) Run(ctx context.Context, window models.Window) (RunStats, error) {
	stats := RunStats{}

	videos, err := s.embeddings.FetchForWindow(ctx, window)
	if err != nil {
		return stats, err
	}
	stats.TotalVideos = len(videos)
	if len(videos) < s.minSize {
		logging.Ctx(ctx).Info().
			Str("window", string(window)).
			Int("videos", len(videos)).
			Msg("too few embedded videos to cluster")
		// A shrunken corpus still invalidates previous clusters.
		deleted, err := s.clusters.DeleteStale(ctx, window, nil)
		if err != nil {
			return stats, err
		}
		stats.StaleDeleted = deleted
		return stats, nil
	}

	dim := len(videos[0].Vector)
	x := mat.NewDense(len(videos), dim, nil)
	for i, v := range videos {
		for j, f := range v.Vector {
			x.Set(i, j, float64(f))
		}
	}

	normalized := NormalizeRows(x)

	logging.Ctx(ctx).Info().
		Str("window", string(window)).
		Int("videos", len(videos)).
		Int("components", s.components).
		Msg("reducing embedding dimensions")
	reduced := ReduceDimensions(normalized, s.components)

	// Core-point tests count the point itself, so the density curve uses
	// minSize-1 neighbors.
	eps := EstimateEps(reduced, s.minSize-1)
	labels := DBSCAN(reduced, eps, s.minSize)

	groups := make(map[int][]int)
	for i, label := range labels {
		if label == Noise {
			stats.NoisePoints++
			continue
		}
		groups[label] = append(groups[label], i)
	}

	logging.Ctx(ctx).Info().
		Str("window", string(window)).
		Int("clusters", len(groups)).
		Int("noise", stats.NoisePoints).
		Msg("density clustering complete")

	now := s.now().UTC()
	keep := make([]string, 0, len(groups))

	for _, members := range groups {
		videoIDs := make([]string, 0, len(members))
		titles := make([]string, 0, len(members))
		channels := make(map[string]struct{})
		ageSum := 0.0

		for _, idx := range members {
			v := videos[idx]
			videoIDs = append(videoIDs, v.VideoID)
			titles = append(titles, v.Title)
			channels[v.ChannelID] = struct{}{}
			age := now.Sub(v.PublishedAt).Hours() / 24
			if age < 0.01 {
				age = 0.01
			}
			ageSum += age
		}

		clusterID := StableClusterID(window, videoIDs)
		keep = append(keep, clusterID)

		keywords := ExtractKeywords(titles)
		c := &models.Cluster{
			ClusterID:      clusterID,
			Window:         window,
			Label:          GenerateLabel(keywords),
			Keywords:       keywords,
			UniqueChannels: len(channels),
			TotalVideos:    len(videoIDs),
			AvgDaysOld:     int(ageSum / float64(len(members))),
		}
		if err := s.clusters.UpsertWithMembers(ctx, c, videoIDs); err != nil {
			return stats, err
		}
		stats.Clusters++
		metrics.ClustersProduced.WithLabelValues(string(window)).Inc()

		logging.Ctx(ctx).Debug().
			Str("cluster_id", clusterID).
			Str("label", c.Label).
			Int("videos", len(videoIDs)).
			Msg("cluster written")
	}

	deleted, err := s.clusters.DeleteStale(ctx, window, keep)
	if err != nil {
		return stats, err
	}
	stats.StaleDeleted = deleted

	logging.Ctx(ctx).Info().
		Str("window", string(window)).
		Int("clusters", stats.Clusters).
		Int("stale_deleted", deleted).
		Msg("clustering pass complete")
	return stats, nil
}
