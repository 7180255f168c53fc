// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nichescout/nichescout/internal/cluster"
	"github.com/nichescout/nichescout/internal/embedding"
	"github.com/nichescout/nichescout/internal/models"
	"github.com/nichescout/nichescout/internal/ranking"
	"github.com/nichescout/nichescout/internal/scoring"
)

// stageRecorder tracks the order stages ran in and lets one fail.
type stageRecorder struct {
	order []string
	fail  string
}

func (r *stageRecorder) run(name string) error {
	r.order = append(r.order, name)
	if name == r.fail {
		return errors.New(name + " exploded")
	}
	return nil
}

type stubEmbed struct{ rec *stageRecorder }

func (s *stubEmbed) Run(ctx context.Context, w models.Window) (embedding.RunStats, error) {
	return embedding.RunStats{Embedded: 10}, s.rec.run("embed")
}

type stubCluster struct{ rec *stageRecorder }

func (s *stubCluster) Run(ctx context.Context, w models.Window) (cluster.RunStats, error) {
	return cluster.RunStats{Clusters: 3}, s.rec.run("cluster")
}

type stubScore struct{ rec *stageRecorder }

func (s *stubScore) Run(ctx context.Context, w models.Window) (scoring.RunStats, error) {
	return scoring.RunStats{Scored: 8}, s.rec.run("score")
}

type stubRank struct{ rec *stageRecorder }

func (s *stubRank) Run(ctx context.Context, w models.Window) (ranking.RunStats, error) {
	return ranking.RunStats{Ranked: 3}, s.rec.run("rank")
}

func newTestProcessor(rec *stageRecorder) *Processor {
	return NewProcessor(&stubEmbed{rec}, &stubCluster{rec}, &stubScore{rec}, &stubRank{rec})
}

func TestProcessorRunsStagesInOrder(t *testing.T) {
	rec := &stageRecorder{}
	p := newTestProcessor(rec)

	sum, err := p.Run(context.Background(), models.Window7d)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	want := []string{"embed", "cluster", "score", "rank"}
	if len(rec.order) != len(want) {
		t.Fatalf("ran %v, want %v", rec.order, want)
	}
	for i, name := range want {
		if rec.order[i] != name {
			t.Errorf("stage %d = %s, want %s", i, rec.order[i], name)
		}
	}

	if sum.Embed.Embedded != 10 || sum.Cluster.Clusters != 3 || sum.Score.Scored != 8 || sum.Rank.Ranked != 3 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestProcessorStopsOnStageFailure(t *testing.T) {
	rec := &stageRecorder{fail: "cluster"}
	p := newTestProcessor(rec)

	sum, err := p.Run(context.Background(), models.Window7d)
	if err == nil {
		t.Fatal("want error from cluster stage")
	}
	if !strings.Contains(err.Error(), "cluster stage") {
		t.Errorf("error = %v, want cluster stage prefix", err)
	}
	if len(rec.order) != 2 {
		t.Errorf("ran %v, want embed then cluster only", rec.order)
	}
	// The embed stats survive even though the run failed.
	if sum.Embed.Embedded != 10 {
		t.Errorf("embed stats = %+v, want preserved", sum.Embed)
	}
	if sum.Score.Scored != 0 {
		t.Errorf("score stats = %+v, want zero for unreached stage", sum.Score)
	}
}
