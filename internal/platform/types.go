// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

// Package platform implements the metered video platform API client, its
// quota-aware transport, and the zero-cost channel feed parser.
package platform

import (
	"context"
	"time"
)

// Search result ordering accepted by the platform.
const (
	OrderRelevance = "relevance"
	OrderDate      = "date"
	OrderViewCount = "viewCount"
	OrderRating    = "rating"
)

// Quota unit costs per endpoint.
const (
	CostSearch   = 100
	CostVideos   = 1
	CostChannels = 1
)

// maxBatchSize is the platform's per-request ID limit.
const maxBatchSize = 50

// SearchParams describes one search call.
type SearchParams struct {
	Query           string
	MaxResults      int
	PublishedAfter  *time.Time
	PublishedBefore *time.Time
	Order           string
}

// SearchResult is one item returned by a search.
type SearchResult struct {
	VideoID      string
	Title        string
	Description  string
	ChannelID    string
	ChannelTitle string
	PublishedAt  time.Time
	ThumbnailURL string
}

// Stats holds per-video statistics.
type Stats struct {
	ViewCount       int64
	LikeCount       *int64
	CommentCount    *int64
	DurationSeconds *int
}

// ChannelInfo holds per-channel metadata. SubscriberCount is nil when the
// channel hides it.
type ChannelInfo struct {
	ChannelID       string
	Title           string
	SubscriberCount *int64
	PublishedAt     *time.Time
}

// FeedItem is one entry from a channel's public feed. ViewCount is set
// only when the feed exposes community statistics.
type FeedItem struct {
	VideoID      string
	Title        string
	PublishedAt  time.Time
	ThumbnailURL string
	ViewCount    *int64
}

// PlatformClient is the capability interface the pipeline depends on.
type PlatformClient interface {
	SearchVideos(ctx context.Context, params SearchParams) ([]SearchResult, error)
	GetVideoStats(ctx context.Context, ids []string) (map[string]Stats, error)
	GetVideoStatsBatched(ctx context.Context, ids []string) (map[string]Stats, error)
	GetChannelInfo(ctx context.Context, ids []string) (map[string]ChannelInfo, error)
	GetChannelInfoBatched(ctx context.Context, ids []string) (map[string]ChannelInfo, error)
	FetchChannelFeed(ctx context.Context, channelID string) ([]FeedItem, error)
}
