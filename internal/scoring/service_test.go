// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package scoring

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/nichescout/nichescout/internal/database"
	"github.com/nichescout/nichescout/internal/models"
)

type mockScoreStore struct {
	rows     []database.ScoringRow
	upserted []*models.VideoScore
	failOn   string
}

func (m *mockScoreStore) FetchVideosForScoring(ctx context.Context, window models.Window) ([]database.ScoringRow, error) {
	return m.rows, nil
}

func (m *mockScoreStore) Upsert(ctx context.Context, s *models.VideoScore) error {
	if s.VideoID == m.failOn {
		return errors.New("write failed")
	}
	m.upserted = append(m.upserted, s)
	return nil
}

func TestRunScoresVideos(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	store := &mockScoreStore{rows: []database.ScoringRow{
		{
			VideoID:          "v1",
			ChannelID:        "ch1",
			PublishedAt:      now.AddDate(0, 0, -10),
			SubscriberCount:  int64Ptr(100000),
			ChannelMedianVPD: float64Ptr(100),
			LatestViews:      100000,
			Views24hAgo:      int64Ptr(95000),
			Views7dAgo:       int64Ptr(50000),
		},
		{
			// Single snapshot: no velocities, breakouts still computed.
			VideoID:     "v2",
			ChannelID:   "ch2",
			PublishedAt: now.AddDate(0, 0, -1),
			LatestViews: 2000,
		},
	}}

	svc := NewService(store)
	svc.now = func() time.Time { return now }

	stats, err := svc.Run(context.Background(), models.Window7d)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if stats.Scored != 2 || stats.TotalFound != 2 {
		t.Fatalf("stats = %+v, want 2 scored of 2", stats)
	}

	s1 := store.upserted[0]
	if math.Abs(s1.ViewsPerDay-10000) > 1e-6 {
		t.Errorf("v1 views_per_day = %v, want 10000", s1.ViewsPerDay)
	}
	if s1.Velocity24h == nil || *s1.Velocity24h != 5000 {
		t.Errorf("v1 velocity_24h = %v, want 5000", s1.Velocity24h)
	}
	if s1.Velocity7d == nil || *s1.Velocity7d != 50000 {
		t.Errorf("v1 velocity_7d = %v, want 50000", s1.Velocity7d)
	}
	if s1.BreakoutBySubs == nil || math.Abs(*s1.BreakoutBySubs-0.1) > 1e-9 {
		t.Errorf("v1 breakout_by_subs = %v, want 0.1", s1.BreakoutBySubs)
	}
	if s1.BreakoutByBaseline == nil || math.Abs(*s1.BreakoutByBaseline-100) > 1e-6 {
		t.Errorf("v1 breakout_by_baseline = %v, want 100", s1.BreakoutByBaseline)
	}
	if s1.Acceleration != nil {
		t.Error("acceleration must stay nil")
	}

	s2 := store.upserted[1]
	if s2.Velocity24h != nil || s2.Velocity7d != nil {
		t.Errorf("v2 velocities = (%v, %v), want nil with single snapshot", s2.Velocity24h, s2.Velocity7d)
	}
	if s2.ViewsPerDay <= 0 {
		t.Errorf("v2 views_per_day = %v, want positive", s2.ViewsPerDay)
	}
	if s2.BreakoutByBaseline != nil {
		t.Errorf("v2 breakout_by_baseline = %v, want nil without baseline", s2.BreakoutByBaseline)
	}
}

func TestRunSkipsFailedUpserts(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	store := &mockScoreStore{
		failOn: "v1",
		rows: []database.ScoringRow{
			{VideoID: "v1", PublishedAt: now.AddDate(0, 0, -1), LatestViews: 100},
			{VideoID: "v2", PublishedAt: now.AddDate(0, 0, -1), LatestViews: 200},
		},
	}

	svc := NewService(store)
	svc.now = func() time.Time { return now }

	stats, err := svc.Run(context.Background(), models.Window7d)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if stats.Scored != 1 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want 1 scored 1 failed", stats)
	}
}

func TestRunEmptyWindow(t *testing.T) {
	svc := NewService(&mockScoreStore{})
	stats, err := svc.Run(context.Background(), models.Window7d)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if stats.TotalFound != 0 || stats.Scored != 0 {
		t.Errorf("stats = %+v, want empty", stats)
	}
}
