// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

// Package models defines the persisted entities of the discovery pipeline:
// discovered videos, stat snapshots, channel profiles, embeddings, clusters,
// scores, and per-feeder ingestion state.
package models

import "time"

// DiscoveredVideo is a video admitted through gating. Created on first
// acceptance; LastSeenAt and mutable metadata refresh on re-encounter.
type DiscoveredVideo struct {
	VideoID      string
	ChannelID    string
	ChannelTitle string
	Title        string
	ThumbnailURL string
	PublishedAt  time.Time
	Feeder       string
	Seed         *string
	Duration     *int // seconds
	Language     *string
	Tags         []string
	FirstSeenAt  time.Time
	LastSeenAt   time.Time
}

// AgeDays returns the video age in days at the given instant.
func (v *DiscoveredVideo) AgeDays(now time.Time) float64 {
	return now.Sub(v.PublishedAt).Hours() / 24
}

// Snapshot is an append-only observation of a video's statistics.
// View counts are stored verbatim; the platform may correct them downward.
type Snapshot struct {
	VideoID      string
	CapturedAt   time.Time
	ViewCount    int64
	LikeCount    *int64
	CommentCount *int64
}

// Channel holds per-channel metadata plus computed baselines.
type Channel struct {
	ChannelID             string
	Title                 string
	SubscriberCount       *int64
	ChannelPublishedAt    *time.Time
	MedianVelocity24h     *float64
	MedianViewsPerDay     *float64
	VideoCountForBaseline int
	FirstTrackedAt        time.Time
	LastRefreshedAt       time.Time
}

// Embedding is the title embedding for one video. Idempotent upsert:
// re-embedding with the same model overwrites the vector and EmbeddedAt.
type Embedding struct {
	VideoID    string
	Vector     []float32
	Model      string
	EmbeddedAt time.Time
}

// Cluster is a semantic niche for one window. ClusterID is a deterministic
// hash of (window, sorted member video IDs), so unchanged membership yields
// an unchanged ID across runs.
type Cluster struct {
	ClusterID           string
	Window              Window
	Label               string
	Keywords            []string
	MedianVelocity      *float64
	UniqueChannels      int
	TotalVideos         int
	AvgDaysOld          int
	AvgChannelSubs      *float64
	WinnerConcentration *float64
	OpportunityScore    *float64
	ComputedAt          time.Time
}

// ClusterMembership ties a video to a cluster with its in-cluster rank.
type ClusterMembership struct {
	ClusterID     string
	VideoID       string
	RankInCluster int
}

// VideoScore holds per-window derived metrics for one video.
// Acceleration is carried in the schema but never populated.
type VideoScore struct {
	VideoID            string
	Window             Window
	ViewCount          int64
	ViewsPerDay        float64
	Velocity24h        *float64
	Velocity7d         *float64
	Acceleration       *float64
	BreakoutBySubs     *float64
	BreakoutByBaseline *float64
	ComputedAt         time.Time
}

// IngestionState is the persisted cursor and counters for one feeder.
type IngestionState struct {
	Feeder             string
	CursorPosition     int
	LastRunAt          time.Time
	VideosAddedLastRun int
	TotalVideosAdded   int64
}
