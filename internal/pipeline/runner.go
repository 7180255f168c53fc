// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/nichescout/nichescout/internal/logging"
	"github.com/nichescout/nichescout/internal/metrics"
	"github.com/nichescout/nichescout/internal/models"
	"github.com/nichescout/nichescout/internal/snapshot"
)

// SnapshotRunner executes one snapshot cycle.
type SnapshotRunner interface {
	Run(ctx context.Context) (snapshot.RunStats, error)
}

// SnapshotSummary reports one snapshot run.
type SnapshotSummary struct {
	snapshot.RunStats
	DurationSeconds float64 `json:"duration_seconds"`
}

// Summary reports one full pipeline run. Errors holds the messages of
// stages that failed; the remaining stages still ran.
type Summary struct {
	Window   string          `json:"window"`
	Ingest   IngestSummary   `json:"ingest"`
	Snapshot SnapshotSummary `json:"snapshot"`
	Process  ProcessSummary  `json:"process"`
	Errors   []string        `json:"errors,omitempty"`
}

// Runner bundles the three pipeline units for the combined mode.
type Runner struct {
	ingestor  *Ingestor
	snapshots SnapshotRunner
	processor *Processor
	now       func() time.Time
}

// NewRunner creates a Runner.
func NewRunner(ingestor *Ingestor, snapshots SnapshotRunner, processor *Processor) *Runner {
	return &Runner{
		ingestor:  ingestor,
		snapshots: snapshots,
		processor: processor,
		now:       time.Now,
	}
}

// RunSnapshot executes one snapshot cycle with stage accounting.
func (r *Runner) RunSnapshot(ctx context.Context) (SnapshotSummary, error) {
	ctx = withRunID(ctx)
	start := r.now()
	defer metrics.ObserveStage("snapshot", start)

	sum := SnapshotSummary{}
	stats, err := r.snapshots.Run(ctx)
	sum.RunStats = stats
	sum.DurationSeconds = time.Since(start).Seconds()
	if err != nil {
		metrics.StageErrorsTotal.WithLabelValues("snapshot").Inc()
		return sum, err
	}
	metrics.RunsTotal.WithLabelValues("snapshot").Inc()
	return sum, nil
}

// RunAll executes ingest, snapshot, and process in order for one
// window. A failed stage is recorded and the run moves on: snapshots
// and processing still make progress on previously ingested data.
func (r *Runner) RunAll(ctx context.Context, window models.Window) (Summary, error) {
	ctx = withRunID(ctx)
	sum := Summary{Window: string(window)}
	var errs []error

	logging.Ctx(ctx).Info().Str("window", string(window)).Msg("starting full pipeline")

	var err error
	sum.Ingest, err = r.ingestor.Run(ctx, window)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("ingest stage failed")
		sum.Errors = append(sum.Errors, err.Error())
		errs = append(errs, err)
	}

	sum.Snapshot, err = r.RunSnapshot(ctx)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("snapshot stage failed")
		sum.Errors = append(sum.Errors, err.Error())
		errs = append(errs, err)
	}

	sum.Process, err = r.processor.Run(ctx, window)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("process stage failed")
		sum.Errors = append(sum.Errors, err.Error())
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		metrics.RunsTotal.WithLabelValues("all").Inc()
	}
	logging.Ctx(ctx).Info().
		Str("window", string(window)).
		Int("stage_errors", len(errs)).
		Msg("full pipeline complete")
	return sum, errors.Join(errs...)
}
