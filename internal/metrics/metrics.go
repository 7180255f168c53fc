// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

// Package metrics provides Prometheus instrumentation for the discovery
// pipeline: platform API usage and quota, feeder and gating counters,
// snapshot scheduling, and per-stage durations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Platform API metrics
	PlatformRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_requests_total",
			Help: "Total platform API requests",
		},
		[]string{"endpoint", "status"}, // status: "ok", "error", "quota_exceeded"
	)

	PlatformRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "platform_request_duration_seconds",
			Help:    "Platform API request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	PlatformRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "platform_retries_total",
			Help: "Total retried platform API requests",
		},
	)

	// Quota metrics
	QuotaUsed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quota_units_used_today",
			Help: "Quota units consumed since the last daily reset",
		},
	)

	QuotaRemaining = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quota_units_remaining",
			Help: "Quota units remaining below the effective limit",
		},
	)

	QuotaExhaustedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quota_exhausted_total",
			Help: "Times a stage stopped early on quota exhaustion",
		},
	)

	// Feeder and gating metrics
	FeederCandidatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feeder_candidates_total",
			Help: "Candidates emitted per feeder",
		},
		[]string{"feeder"},
	)

	GatingDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gating_decisions_total",
			Help: "Gating outcomes by decision",
		},
		[]string{"decision"}, // "accepted", "duplicate", "too_old", "channel_cap"
	)

	VideosUpsertedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videos_upserted_total",
			Help: "Video upserts by kind",
		},
		[]string{"kind"}, // "inserted", "updated"
	)

	// Snapshot scheduler metrics
	SnapshotLeasedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_rows_leased_total",
			Help: "Videos leased for snapshotting by tier",
		},
		[]string{"tier"},
	)

	SnapshotsWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshots_written_total",
			Help: "Snapshot rows inserted",
		},
	)

	ChannelsRefreshedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "channels_refreshed_total",
			Help: "Channel profiles refreshed from the platform",
		},
	)

	// Processing metrics
	EmbeddingsWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embeddings_written_total",
			Help: "Embedding rows upserted",
		},
	)

	ClustersProduced = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "clusters_produced",
			Help: "Clusters produced by the latest clustering pass",
		},
		[]string{"window"},
	)

	ScoresWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scores_written_total",
			Help: "Video score upserts",
		},
		[]string{"window"},
	)

	// Pipeline metrics
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"stage"}, // "ingest", "snapshot", "embed", "cluster", "score", "rank"
	)

	StageErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_errors_total",
			Help: "Unhandled errors caught at the stage boundary",
		},
		[]string{"stage"},
	)

	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Completed pipeline runs by mode",
		},
		[]string{"mode"},
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total database operation errors",
		},
		[]string{"operation", "table"},
	)
)

// ObserveStage records one stage execution.
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// ObserveDBQuery records one database operation.
func ObserveDBQuery(operation, table string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}
