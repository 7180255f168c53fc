// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

// Package scoring computes per-video performance metrics from snapshot
// deltas. The computations are pure; the service wires them to the
// store.
package scoring

import "time"

// minAgeDays floors video age so views-per-day stays finite for videos
// published moments ago.
const minAgeDays = 0.01

// minEffectiveSubs floors the subscriber divisor so tiny channels do not
// produce inflated breakout scores.
const minEffectiveSubs = 100

// ViewsPerDay returns average daily views since publication.
func ViewsPerDay(viewCount int64, publishedAt, now time.Time) float64 {
	ageDays := now.Sub(publishedAt).Hours() / 24
	if ageDays < minAgeDays {
		ageDays = minAgeDays
	}
	return float64(viewCount) / ageDays
}

// Velocity returns views gained since the previous snapshot, or nil when
// no previous snapshot exists.
func Velocity(current int64, previous *int64) *float64 {
	if previous == nil {
		return nil
	}
	v := float64(current - *previous)
	return &v
}

// BreakoutBySubs normalizes views-per-day by channel size. A nil or
// small subscriber count is floored at minEffectiveSubs. Returns nil
// when views-per-day carries no signal.
func BreakoutBySubs(viewsPerDay float64, subscriberCount *int64) *float64 {
	if viewsPerDay <= 0 {
		return nil
	}
	effective := int64(minEffectiveSubs)
	if subscriberCount != nil && *subscriberCount > effective {
		effective = *subscriberCount
	}
	b := viewsPerDay / float64(effective)
	return &b
}

// BreakoutByBaseline compares views-per-day to the channel's median. A
// value of 2 means the video runs at twice the channel's typical pace.
// Returns nil when either side carries no signal.
func BreakoutByBaseline(viewsPerDay float64, channelMedianVPD *float64) *float64 {
	if viewsPerDay <= 0 {
		return nil
	}
	if channelMedianVPD == nil || *channelMedianVPD <= 0 {
		return nil
	}
	b := viewsPerDay / *channelMedianVPD
	return &b
}
