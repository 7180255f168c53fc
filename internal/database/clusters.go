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

// ClusterRepository handles niche_clusters and niche_cluster_videos.
type ClusterRepository struct {
	db *DB
}

// NewClusterRepository creates a ClusterRepository.
func NewClusterRepository(db *DB) *ClusterRepository {
	return &ClusterRepository{db: db}
}

// UpsertWithMembers writes a cluster and rewrites its membership rows in
// one transaction. Membership rank follows the order of memberIDs.
func (r *ClusterRepository) UpsertWithMembers(ctx context.Context, c *models.Cluster, memberIDs []string) error {
	start := time.Now()
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin cluster transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	upsert := `
		INSERT INTO niche_clusters (
			cluster_id, "window", label, keywords, unique_channels,
			total_videos, avg_days_old, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (cluster_id) DO UPDATE SET
			"window"        = EXCLUDED.window,
			label           = EXCLUDED.label,
			keywords        = EXCLUDED.keywords,
			unique_channels = EXCLUDED.unique_channels,
			total_videos    = EXCLUDED.total_videos,
			avg_days_old    = EXCLUDED.avg_days_old,
			computed_at     = now()
	`
	if _, err := tx.Exec(ctx, upsert,
		c.ClusterID, c.Window, c.Label, c.Keywords,
		c.UniqueChannels, c.TotalVideos, c.AvgDaysOld); err != nil {
		metrics.ObserveDBQuery("upsert", "niche_clusters", start, err)
		return fmt.Errorf("failed to upsert cluster %s: %w", c.ClusterID, err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM niche_cluster_videos WHERE cluster_id = $1`, c.ClusterID); err != nil {
		return fmt.Errorf("failed to clear cluster members for %s: %w", c.ClusterID, err)
	}

	insert := `
		INSERT INTO niche_cluster_videos (cluster_id, video_id, rank_in_cluster)
		VALUES ($1, $2, $3)
	`
	for i, videoID := range memberIDs {
		if _, err := tx.Exec(ctx, insert, c.ClusterID, videoID, i); err != nil {
			return fmt.Errorf("failed to insert member %s of %s: %w", videoID, c.ClusterID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cluster %s: %w", c.ClusterID, err)
	}
	metrics.ObserveDBQuery("upsert", "niche_clusters", start, nil)
	return nil
}

// DeleteStale removes clusters for the window whose IDs were not produced
// by the latest pass. Memberships cascade.
func (r *ClusterRepository) DeleteStale(ctx context.Context, window models.Window, keep []string) (int, error) {
	start := time.Now()
	var query string
	var args []any
	if len(keep) == 0 {
		query = `DELETE FROM niche_clusters WHERE "window" = $1`
		args = []any{window}
	} else {
		query = `DELETE FROM niche_clusters WHERE "window" = $1 AND NOT (cluster_id = ANY($2::uuid[]))`
		args = []any{window, keep}
	}

	tag, err := r.db.Pool.Exec(ctx, query, args...)
	metrics.ObserveDBQuery("delete", "niche_clusters", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale clusters: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ClusterAggregates carries the member arrays ranking aggregates over.
// Array elements align by member; velocity and subscriber entries are nil
// where the joined score or channel lacks them.
type ClusterAggregates struct {
	ClusterID        string
	Velocities       []*float64
	ViewCounts       []int64
	SubscriberCounts []*int64
}

// FetchClustersWithScores joins each cluster's members with their scores
// at the same window and their channel sizes.
func (r *ClusterRepository) FetchClustersWithScores(ctx context.Context, window models.Window) ([]ClusterAggregates, error) {
	start := time.Now()
	query := `
		SELECT nc.cluster_id,
		       array_agg(s.velocity_24h) AS velocities,
		       array_agg(COALESCE(s.view_count, 0)) AS view_counts,
		       array_agg(c.subscriber_count) AS subscriber_counts
		FROM niche_clusters nc
		JOIN niche_cluster_videos m ON m.cluster_id = nc.cluster_id
		JOIN discovered_videos v ON v.video_id = m.video_id
		LEFT JOIN video_scores s ON s.video_id = m.video_id AND s.window = nc.window
		LEFT JOIN channel_profiles_lite c ON c.channel_id = v.channel_id
		WHERE nc.window = $1
		GROUP BY nc.cluster_id
	`

	rows, err := r.db.Pool.Query(ctx, query, window)
	metrics.ObserveDBQuery("select", "niche_clusters", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch clusters for ranking: %w", err)
	}
	defer rows.Close()

	var out []ClusterAggregates
	for rows.Next() {
		var ca ClusterAggregates
		if err := rows.Scan(&ca.ClusterID, &ca.Velocities, &ca.ViewCounts, &ca.SubscriberCounts); err != nil {
			return nil, fmt.Errorf("failed to scan cluster aggregates: %w", err)
		}
		out = append(out, ca)
	}
	return out, rows.Err()
}

// UpdateMetrics overwrites the four ranking aggregates on a cluster row.
func (r *ClusterRepository) UpdateMetrics(ctx context.Context, clusterID string,
	medianVelocity, avgSubs, concentration, opportunity *float64) error {
	start := time.Now()
	query := `
		UPDATE niche_clusters
		SET median_velocity      = $2,
		    avg_channel_subs     = $3,
		    winner_concentration = $4,
		    opportunity_score    = $5,
		    computed_at          = now()
		WHERE cluster_id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query, clusterID, medianVelocity, avgSubs, concentration, opportunity)
	metrics.ObserveDBQuery("update", "niche_clusters", start, err)
	if err != nil {
		return fmt.Errorf("failed to update cluster metrics for %s: %w", clusterID, err)
	}
	return nil
}
