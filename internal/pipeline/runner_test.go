// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nichescout/nichescout/internal/ingest"
	"github.com/nichescout/nichescout/internal/models"
	"github.com/nichescout/nichescout/internal/snapshot"
)

type stubSnapshotRunner struct {
	stats snapshot.RunStats
	err   error
	calls int
}

func (s *stubSnapshotRunner) Run(ctx context.Context) (snapshot.RunStats, error) {
	s.calls++
	return s.stats, s.err
}

func TestRunnerRunSnapshot(t *testing.T) {
	snaps := &stubSnapshotRunner{stats: snapshot.RunStats{Snapshotted: 42}}
	r := NewRunner(nil, snaps, nil)

	sum, err := r.RunSnapshot(context.Background())
	if err != nil {
		t.Fatalf("RunSnapshot error: %v", err)
	}
	if sum.Snapshotted != 42 {
		t.Errorf("snapshotted = %d, want 42", sum.Snapshotted)
	}
}

func TestRunnerRunAll(t *testing.T) {
	feeder := &stubFeeder{name: "intent_seed", candidates: []ingest.Candidate{
		candidate("v1", "ch1", "s", time.Hour),
	}}
	store := &mockVideoStore{existing: map[string]bool{}, channelCounts: map[string]int{}}
	snaps := &stubSnapshotRunner{stats: snapshot.RunStats{Snapshotted: 5}}
	rec := &stageRecorder{}

	r := NewRunner(
		NewIngestor([]ingest.Feeder{feeder}, store, nil, 5),
		snaps,
		newTestProcessor(rec),
	)

	sum, err := r.RunAll(context.Background(), models.Window7d)
	if err != nil {
		t.Fatalf("RunAll error: %v", err)
	}
	if sum.Ingest.Inserted != 1 {
		t.Errorf("ingest inserted = %d, want 1", sum.Ingest.Inserted)
	}
	if sum.Snapshot.Snapshotted != 5 {
		t.Errorf("snapshotted = %d, want 5", sum.Snapshot.Snapshotted)
	}
	if sum.Process.Rank.Ranked != 3 {
		t.Errorf("ranked = %d, want 3", sum.Process.Rank.Ranked)
	}
	if len(sum.Errors) != 0 {
		t.Errorf("errors = %v, want none", sum.Errors)
	}
}

func TestRunnerRunAllContinuesPastFailures(t *testing.T) {
	feeder := &stubFeeder{name: "intent_seed", candidates: []ingest.Candidate{
		candidate("v1", "ch1", "s", time.Hour),
	}}
	store := &mockVideoStore{existing: map[string]bool{}, channelCounts: map[string]int{}}
	snaps := &stubSnapshotRunner{err: errors.New("lease contention")}
	rec := &stageRecorder{}

	r := NewRunner(
		NewIngestor([]ingest.Feeder{feeder}, store, nil, 5),
		snaps,
		newTestProcessor(rec),
	)

	sum, err := r.RunAll(context.Background(), models.Window7d)
	if err == nil {
		t.Fatal("want joined error from failed snapshot stage")
	}
	if len(sum.Errors) != 1 {
		t.Errorf("errors = %v, want one", sum.Errors)
	}
	// Processing still ran all four stages.
	if len(rec.order) != 4 {
		t.Errorf("process stages ran = %v, want all four", rec.order)
	}
	if sum.Ingest.Inserted != 1 {
		t.Errorf("ingest inserted = %d, want 1", sum.Ingest.Inserted)
	}
}
