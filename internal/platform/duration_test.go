// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package platform

import "testing"

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  *int
	}{
		{"PT1H30M", intPtr(5400)},
		{"PT5M30S", intPtr(330)},
		{"PT30S", intPtr(30)},
		{"PT2H", intPtr(7200)},
		{"PT1H2M3S", intPtr(3723)},
		{"", nil},
		{"PT", nil},
		{"P1D", nil},
		{"1H30M", nil},
		{"garbage", nil},
	}

	for _, tt := range tests {
		got := ParseDuration(tt.input)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("ParseDuration(%q) = %d, want nil", tt.input, *got)
		case tt.want != nil && got == nil:
			t.Errorf("ParseDuration(%q) = nil, want %d", tt.input, *tt.want)
		case tt.want != nil && got != nil && *got != *tt.want:
			t.Errorf("ParseDuration(%q) = %d, want %d", tt.input, *got, *tt.want)
		}
	}
}

func intPtr(n int) *int { return &n }
