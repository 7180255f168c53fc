// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package models

import (
	"testing"
	"time"
)

func TestParseWindow(t *testing.T) {
	for _, s := range []string{"24h", "7d", "30d", "90d"} {
		w, err := ParseWindow(s)
		if err != nil {
			t.Errorf("ParseWindow(%q) error: %v", s, err)
		}
		if string(w) != s {
			t.Errorf("ParseWindow(%q) = %q", s, w)
		}
	}

	for _, s := range []string{"", "1d", "7D", "week"} {
		if _, err := ParseWindow(s); err == nil {
			t.Errorf("ParseWindow(%q) accepted invalid window", s)
		}
	}
}

func TestWindowDays(t *testing.T) {
	if Window24h.Days() != 1 || Window7d.Days() != 7 || Window30d.Days() != 30 || Window90d.Days() != 90 {
		t.Error("window day widths wrong")
	}
	if Window7d.Duration() != 7*24*time.Hour {
		t.Errorf("Duration = %v, want 168h", Window7d.Duration())
	}
}

func TestEligibleWindows(t *testing.T) {
	tests := []struct {
		ageDays float64
		want    []Window
	}{
		{0.25, []Window{Window24h, Window7d, Window30d, Window90d}},
		{1.0, []Window{Window24h, Window7d, Window30d, Window90d}},
		{3, []Window{Window7d, Window30d, Window90d}},
		{20, []Window{Window30d, Window90d}},
		{89, []Window{Window90d}},
		{120, nil},
	}

	for _, tt := range tests {
		got := EligibleWindows(tt.ageDays)
		if len(got) != len(tt.want) {
			t.Errorf("EligibleWindows(%v) = %v, want %v", tt.ageDays, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("EligibleWindows(%v)[%d] = %v, want %v", tt.ageDays, i, got[i], tt.want[i])
			}
		}
	}
}

func TestDiscoveredVideoAgeDays(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	v := &DiscoveredVideo{PublishedAt: now.Add(-36 * time.Hour)}
	if got := v.AgeDays(now); got != 1.5 {
		t.Errorf("AgeDays = %v, want 1.5", got)
	}
}
