// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package ingest

import (
	"time"

	"github.com/nichescout/nichescout/internal/metrics"
	"github.com/nichescout/nichescout/internal/models"
	"github.com/nichescout/nichescout/internal/platform"
)

// Rejection reasons emitted by the gate.
const (
	ReasonDuplicate  = "duplicate"
	ReasonTooOld     = "too_old"
	ReasonChannelCap = "channel_cap"
)

// Candidate is one feeder emission awaiting gating.
type Candidate struct {
	Result platform.SearchResult
	Feeder string
	Seed   string
}

// GatingResult is the gate's verdict on one candidate.
type GatingResult struct {
	Accepted        bool
	Candidate       Candidate
	EligibleWindows []models.Window
	Reason          string
}

// GateStats aggregates gate decisions over a batch.
type GateStats struct {
	Total              int
	Accepted           int
	RejectedDuplicate  int
	RejectedTooOld     int
	RejectedChannelCap int
}

// Gate is a stateful batch filter over feeder output. Seen IDs and
// per-channel counts are seeded from the store once per batch and then
// maintained in memory, so candidates later in the batch observe
// acceptances made earlier in it.
type Gate struct {
	seen          map[string]struct{}
	channelCounts map[string]int
	maxPerChannel int
	now           time.Time
	stats         GateStats
}

// NewGate builds a gate. seen holds video IDs discovered in the last 7
// days; channelCounts holds per-channel acceptance counts over the last
// 24 hours. Both maps are owned by the gate after the call.
func NewGate(seen map[string]struct{}, channelCounts map[string]int, maxPerChannel int, now time.Time) *Gate {
	if seen == nil {
		seen = make(map[string]struct{})
	}
	if channelCounts == nil {
		channelCounts = make(map[string]int)
	}
	return &Gate{
		seen:          seen,
		channelCounts: channelCounts,
		maxPerChannel: maxPerChannel,
		now:           now,
	}
}

// Check applies the three rules in order: duplicate, age, channel cap.
// On acceptance the seen set and the channel count are updated.
func (g *Gate) Check(c Candidate) GatingResult {
	g.stats.Total++

	if _, dup := g.seen[c.Result.VideoID]; dup {
		return g.reject(c, ReasonDuplicate)
	}

	age := g.now.Sub(c.Result.PublishedAt).Hours() / 24
	eligible := models.EligibleWindows(age)
	if len(eligible) == 0 {
		return g.reject(c, ReasonTooOld)
	}

	if g.channelCounts[c.Result.ChannelID]+1 > g.maxPerChannel {
		return g.reject(c, ReasonChannelCap)
	}

	g.seen[c.Result.VideoID] = struct{}{}
	g.channelCounts[c.Result.ChannelID]++
	g.stats.Accepted++
	metrics.GatingDecisionsTotal.WithLabelValues("accepted").Inc()
	return GatingResult{Accepted: true, Candidate: c, EligibleWindows: eligible}
}

func (g *Gate) reject(c Candidate, reason string) GatingResult {
	switch reason {
	case ReasonDuplicate:
		g.stats.RejectedDuplicate++
	case ReasonTooOld:
		g.stats.RejectedTooOld++
	case ReasonChannelCap:
		g.stats.RejectedChannelCap++
	}
	metrics.GatingDecisionsTotal.WithLabelValues(reason).Inc()
	return GatingResult{Accepted: false, Candidate: c, Reason: reason}
}

// Stats returns the counters accumulated so far.
func (g *Gate) Stats() GateStats {
	return g.stats
}
