// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package platform

import (
	"regexp"
	"strconv"
)

// durationRE matches the platform's ISO-8601 time durations (PT#H#M#S).
// Date components (days, weeks) never appear in video durations.
var durationRE = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseDuration converts a PT…H…M…S duration into seconds.
// Returns nil for empty or malformed input so callers store a null
// duration instead of failing the whole item.
func ParseDuration(s string) *int {
	if s == "" || s == "PT" {
		return nil
	}
	m := durationRE.FindStringSubmatch(s)
	if m == nil {
		return nil
	}

	total := 0
	for i, mult := range []int{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return nil
		}
		total += n * mult
	}
	return &total
}
