// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

// Package pipeline composes the stage services into the three runnable
// units: ingest, snapshot, and process. Each unit attaches a run ID,
// records stage metrics, and returns a JSON-serializable summary.
package pipeline

import (
	"context"
	"time"

	"github.com/nichescout/nichescout/internal/ingest"
	"github.com/nichescout/nichescout/internal/logging"
	"github.com/nichescout/nichescout/internal/metrics"
	"github.com/nichescout/nichescout/internal/models"
)

// seenWindowDays bounds the duplicate set preloaded into the gate.
const seenWindowDays = 7

// VideoStore persists gated candidates and seeds the gate state.
type VideoStore interface {
	GetExistingVideoIDs(ctx context.Context, sinceDays int) (map[string]bool, error)
	GetChannelCounts24h(ctx context.Context, channelIDs []string) (map[string]int, error)
	Upsert(ctx context.Context, v *models.DiscoveredVideo) (bool, error)
}

// QuotaReader exposes the governor's position for run summaries.
type QuotaReader interface {
	Used() int
	Remaining() int
}

// IngestSummary reports one ingestion run.
type IngestSummary struct {
	Window             string         `json:"window"`
	CandidatesFound    int            `json:"candidates_found"`
	PerFeeder          map[string]int `json:"per_feeder"`
	Accepted           int            `json:"accepted"`
	RejectedDuplicate  int            `json:"rejected_duplicate"`
	RejectedTooOld     int            `json:"rejected_too_old"`
	RejectedChannelCap int            `json:"rejected_channel_cap"`
	Inserted           int            `json:"inserted"`
	Updated            int            `json:"updated"`
	UpsertErrors       int            `json:"upsert_errors"`
	QuotaUsed          int            `json:"quota_used"`
	QuotaRemaining     int            `json:"quota_remaining"`
	DurationSeconds    float64        `json:"duration_seconds"`
}

// Ingestor runs feeders, gates their output, and persists what survives.
type Ingestor struct {
	feeders       []ingest.Feeder
	videos        VideoStore
	quota         QuotaReader
	maxPerChannel int
	now           func() time.Time
}

// NewIngestor creates an Ingestor. quota may be nil when no governor is
// attached; the summary then reports zero usage.
func NewIngestor(feeders []ingest.Feeder, videos VideoStore, quota QuotaReader, maxPerChannel int) *Ingestor {
	return &Ingestor{
		feeders:       feeders,
		videos:        videos,
		quota:         quota,
		maxPerChannel: maxPerChannel,
		now:           time.Now,
	}
}

// Run executes one ingestion pass: feeders, gating, upserts. Feeder
// quota exhaustion is not an error here; the pass persists whatever the
// feeders produced before stopping.
func (p *Ingestor) Run(ctx context.Context, window models.Window) (IngestSummary, error) {
	ctx = withRunID(ctx)
	start := p.now()
	defer metrics.ObserveStage("ingest", start)

	sum := IngestSummary{Window: string(window)}
	defer func() { sum.DurationSeconds = time.Since(start).Seconds() }()

	logging.Ctx(ctx).Info().Str("window", string(window)).Msg("starting ingestion")

	candidates, feederStats := ingest.RunFeeders(ctx, p.feeders, window)
	sum.CandidatesFound = feederStats.Total
	sum.PerFeeder = feederStats.PerFeeder
	p.fillQuota(&sum)

	if len(candidates) == 0 {
		logging.Ctx(ctx).Info().Msg("no candidates found")
		metrics.RunsTotal.WithLabelValues("ingest").Inc()
		return sum, nil
	}

	gate, err := p.buildGate(ctx, candidates)
	if err != nil {
		metrics.StageErrorsTotal.WithLabelValues("ingest").Inc()
		return sum, err
	}

	var accepted []ingest.GatingResult
	for _, c := range candidates {
		if r := gate.Check(c); r.Accepted {
			accepted = append(accepted, r)
		}
	}
	gs := gate.Stats()
	sum.Accepted = gs.Accepted
	sum.RejectedDuplicate = gs.RejectedDuplicate
	sum.RejectedTooOld = gs.RejectedTooOld
	sum.RejectedChannelCap = gs.RejectedChannelCap

	logging.Ctx(ctx).Info().
		Int("candidates", gs.Total).
		Int("accepted", gs.Accepted).
		Int("duplicate", gs.RejectedDuplicate).
		Int("too_old", gs.RejectedTooOld).
		Int("channel_cap", gs.RejectedChannelCap).
		Msg("gating complete")

	for _, r := range accepted {
		v := discoveredVideo(r.Candidate)
		inserted, err := p.videos.Upsert(ctx, &v)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("video_id", v.VideoID).Msg("video upsert failed")
			sum.UpsertErrors++
			continue
		}
		if inserted {
			sum.Inserted++
			metrics.VideosUpsertedTotal.WithLabelValues("inserted").Inc()
		} else {
			sum.Updated++
			metrics.VideosUpsertedTotal.WithLabelValues("updated").Inc()
		}
	}
	p.fillQuota(&sum)

	logging.Ctx(ctx).Info().
		Int("inserted", sum.Inserted).
		Int("updated", sum.Updated).
		Int("quota_remaining", sum.QuotaRemaining).
		Msg("ingestion complete")

	metrics.RunsTotal.WithLabelValues("ingest").Inc()
	return sum, nil
}

// buildGate preloads the duplicate set and the 24h per-channel counts
// for the channels this batch touches.
func (p *Ingestor) buildGate(ctx context.Context, candidates []ingest.Candidate) (*ingest.Gate, error) {
	existing, err := p.videos.GetExistingVideoIDs(ctx, seenWindowDays)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(existing))
	for id := range existing {
		seen[id] = struct{}{}
	}

	var channelIDs []string
	uniq := make(map[string]struct{})
	for _, c := range candidates {
		if _, ok := uniq[c.Result.ChannelID]; ok {
			continue
		}
		uniq[c.Result.ChannelID] = struct{}{}
		channelIDs = append(channelIDs, c.Result.ChannelID)
	}
	counts, err := p.videos.GetChannelCounts24h(ctx, channelIDs)
	if err != nil {
		return nil, err
	}

	return ingest.NewGate(seen, counts, p.maxPerChannel, p.now()), nil
}

func (p *Ingestor) fillQuota(sum *IngestSummary) {
	if p.quota == nil {
		return
	}
	sum.QuotaUsed = p.quota.Used()
	sum.QuotaRemaining = p.quota.Remaining()
}

// discoveredVideo converts an accepted candidate to its storage model.
func discoveredVideo(c ingest.Candidate) models.DiscoveredVideo {
	v := models.DiscoveredVideo{
		VideoID:      c.Result.VideoID,
		ChannelID:    c.Result.ChannelID,
		ChannelTitle: c.Result.ChannelTitle,
		Title:        c.Result.Title,
		ThumbnailURL: c.Result.ThumbnailURL,
		PublishedAt:  c.Result.PublishedAt,
		Feeder:       c.Feeder,
	}
	if c.Seed != "" {
		seed := c.Seed
		v.Seed = &seed
	}
	return v
}

// withRunID attaches a fresh run ID unless the caller already set one.
func withRunID(ctx context.Context) context.Context {
	if logging.RunIDFromContext(ctx) != "" {
		return ctx
	}
	return logging.ContextWithRunID(ctx, logging.NewRunID())
}
