// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package models

import (
	"fmt"
	"time"
)

// Window is a rolling age band that scopes fetches, scores, and clusters.
type Window string

const (
	Window24h Window = "24h"
	Window7d  Window = "7d"
	Window30d Window = "30d"
	Window90d Window = "90d"
)

// DefaultWindow is used when no --window flag is given.
const DefaultWindow = Window7d

// WindowConfig describes one rolling age band.
type WindowConfig struct {
	// Days is the band width; a video is inside the window while
	// its age does not exceed this many days.
	Days int

	// MinViews is the ingest floor applied when a feeder search
	// targets this window.
	MinViews int
}

// WindowConfigs holds the canonical band definitions, widest last.
// Order matters: eligibility lists are built narrowest-first.
var WindowConfigs = map[Window]WindowConfig{
	Window24h: {Days: 1, MinViews: 100},
	Window7d:  {Days: 7, MinViews: 500},
	Window30d: {Days: 30, MinViews: 2000},
	Window90d: {Days: 90, MinViews: 5000},
}

// AllWindows lists windows narrowest-first.
var AllWindows = []Window{Window24h, Window7d, Window30d, Window90d}

// ParseWindow validates a window string from the CLI or config.
func ParseWindow(s string) (Window, error) {
	w := Window(s)
	if _, ok := WindowConfigs[w]; !ok {
		return "", fmt.Errorf("invalid window %q (want 24h, 7d, 30d or 90d)", s)
	}
	return w, nil
}

// Days returns the band width for the window.
func (w Window) Days() int {
	return WindowConfigs[w].Days
}

// Duration returns the band width as a time.Duration.
func (w Window) Duration() time.Duration {
	return time.Duration(WindowConfigs[w].Days) * 24 * time.Hour
}

// EligibleWindows returns the windows a video of the given age (in days)
// still fits into, narrowest-first. An empty result means the video is
// older than the widest band.
func EligibleWindows(ageDays float64) []Window {
	var out []Window
	for _, w := range AllWindows {
		if ageDays <= float64(WindowConfigs[w].Days) {
			out = append(out, w)
		}
	}
	return out
}
