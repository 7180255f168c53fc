// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

// Package quota tracks the daily platform API unit budget for one worker
// process. The ledger is process-local: when several workers share one
// platform key, each must be configured with its share of the daily limit.
package quota

import (
	"sync"
	"time"

	"github.com/nichescout/nichescout/internal/metrics"
)

// billingZone is the platform's billing timezone as a fixed offset.
// The platform resets quotas at midnight Pacific; the fixed offset drifts
// an hour across DST transitions, which is tolerated.
var billingZone = time.FixedZone("PT", -8*60*60)

// Governor enforces the daily unit budget with a safety buffer.
// Every platform call must pass CanAfford before it starts and Consume
// once it succeeds.
type Governor struct {
	mu         sync.Mutex
	dailyLimit int
	buffer     float64
	used       int
	lastReset  time.Time

	// now is replaceable in tests.
	now func() time.Time
}

// New creates a governor with the given daily limit and buffer ratio.
// The buffer withholds a fraction of the daily limit as headroom for
// out-of-band usage against the same key.
func New(dailyLimit int, buffer float64) *Governor {
	g := &Governor{
		dailyLimit: dailyLimit,
		buffer:     buffer,
		now:        time.Now,
	}
	g.lastReset = g.now()
	g.publish()
	return g
}

// EffectiveLimit is the spendable budget after the buffer.
func (g *Governor) EffectiveLimit() int {
	return int(float64(g.dailyLimit) * (1 - g.buffer))
}

// CanAfford reports whether cost units fit in the remaining budget.
func (g *Governor) CanAfford(cost int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.maybeReset()
	return g.used+cost <= g.EffectiveLimit()
}

// Consume records cost units if the budget allows. Returns false without
// consuming when the budget would be exceeded, so used never passes the
// effective limit.
func (g *Governor) Consume(cost int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.maybeReset()
	if g.used+cost > g.EffectiveLimit() {
		return false
	}
	g.used += cost
	g.publish()
	return true
}

// Used returns units consumed since the last daily reset.
func (g *Governor) Used() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.maybeReset()
	return g.used
}

// Remaining returns the units left below the effective limit, never negative.
func (g *Governor) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.maybeReset()
	if r := g.EffectiveLimit() - g.used; r > 0 {
		return r
	}
	return 0
}

// maybeReset zeroes the counter when a billing day boundary has passed.
// Must be called with mu held.
func (g *Governor) maybeReset() {
	now := g.now().In(billingZone)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, billingZone)
	if g.lastReset.In(billingZone).Before(midnight) {
		g.used = 0
		g.lastReset = g.now()
		g.publish()
	}
}

// publish updates the quota gauges. Must be called with mu held.
func (g *Governor) publish() {
	metrics.QuotaUsed.Set(float64(g.used))
	remaining := g.EffectiveLimit() - g.used
	if remaining < 0 {
		remaining = 0
	}
	metrics.QuotaRemaining.Set(float64(remaining))
}
