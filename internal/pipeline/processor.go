// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/nichescout/nichescout/internal/cluster"
	"github.com/nichescout/nichescout/internal/embedding"
	"github.com/nichescout/nichescout/internal/logging"
	"github.com/nichescout/nichescout/internal/metrics"
	"github.com/nichescout/nichescout/internal/models"
	"github.com/nichescout/nichescout/internal/ranking"
	"github.com/nichescout/nichescout/internal/scoring"
)

// Stage runners, one per processing step.
type (
	EmbedRunner interface {
		Run(ctx context.Context, window models.Window) (embedding.RunStats, error)
	}
	ClusterRunner interface {
		Run(ctx context.Context, window models.Window) (cluster.RunStats, error)
	}
	ScoreRunner interface {
		Run(ctx context.Context, window models.Window) (scoring.RunStats, error)
	}
	RankRunner interface {
		Run(ctx context.Context, window models.Window) (ranking.RunStats, error)
	}
)

// ProcessSummary reports one processing run. Stage stats are zero-valued
// for stages the run did not reach.
type ProcessSummary struct {
	Window          string            `json:"window"`
	Embed           embedding.RunStats `json:"embed"`
	Cluster         cluster.RunStats   `json:"cluster"`
	Score           scoring.RunStats   `json:"score"`
	Rank            ranking.RunStats   `json:"rank"`
	EmbedSeconds    float64            `json:"embed_seconds"`
	ClusterSeconds  float64            `json:"cluster_seconds"`
	ScoreSeconds    float64            `json:"score_seconds"`
	RankSeconds     float64            `json:"rank_seconds"`
	DurationSeconds float64            `json:"duration_seconds"`
}

// Processor chains the platform-free stages: embed, cluster, score,
// rank. The ordering matters: clustering reads embeddings, ranking
// reads both clusters and scores.
type Processor struct {
	embed   EmbedRunner
	cluster ClusterRunner
	score   ScoreRunner
	rank    RankRunner
	now     func() time.Time
}

// NewProcessor creates a Processor.
func NewProcessor(embed EmbedRunner, cluster ClusterRunner, score ScoreRunner, rank RankRunner) *Processor {
	return &Processor{
		embed:   embed,
		cluster: cluster,
		score:   score,
		rank:    rank,
		now:     time.Now,
	}
}

// Run executes the four stages in order for one window. The first stage
// failure stops the run; the summary carries the stats of the stages
// that completed.
func (p *Processor) Run(ctx context.Context, window models.Window) (ProcessSummary, error) {
	ctx = withRunID(ctx)
	start := p.now()
	sum := ProcessSummary{Window: string(window)}
	defer func() { sum.DurationSeconds = time.Since(start).Seconds() }()

	logging.Ctx(ctx).Info().Str("window", string(window)).Msg("starting processing")

	var err error
	sum.Embed, sum.EmbedSeconds, err = runStage(ctx, "embed", window, p.embed.Run)
	if err != nil {
		return sum, err
	}
	sum.Cluster, sum.ClusterSeconds, err = runStage(ctx, "cluster", window, p.cluster.Run)
	if err != nil {
		return sum, err
	}
	sum.Score, sum.ScoreSeconds, err = runStage(ctx, "score", window, p.score.Run)
	if err != nil {
		return sum, err
	}
	sum.Rank, sum.RankSeconds, err = runStage(ctx, "rank", window, p.rank.Run)
	if err != nil {
		return sum, err
	}

	logging.Ctx(ctx).Info().
		Str("window", string(window)).
		Int("embedded", sum.Embed.Embedded).
		Int("clusters", sum.Cluster.Clusters).
		Int("scored", sum.Score.Scored).
		Int("ranked", sum.Rank.Ranked).
		Msg("processing complete")

	metrics.RunsTotal.WithLabelValues("process").Inc()
	return sum, nil
}

// runStage times one stage and records its metrics.
func runStage[T any](ctx context.Context, name string, window models.Window,
	run func(context.Context, models.Window) (T, error)) (T, float64, error) {
	start := time.Now()
	stats, err := run(ctx, window)
	elapsed := time.Since(start).Seconds()
	metrics.ObserveStage(name, start)
	if err != nil {
		metrics.StageErrorsTotal.WithLabelValues(name).Inc()
		return stats, elapsed, fmt.Errorf("%s stage: %w", name, err)
	}
	return stats, elapsed, nil
}
