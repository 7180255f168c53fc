// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package quota

import (
	"testing"
	"time"
)

func TestEffectiveLimit(t *testing.T) {
	g := New(10000, 0.1)
	if got := g.EffectiveLimit(); got != 9000 {
		t.Errorf("EffectiveLimit() = %d, want 9000", got)
	}

	g = New(10000, 0)
	if got := g.EffectiveLimit(); got != 10000 {
		t.Errorf("EffectiveLimit() = %d, want 10000", got)
	}
}

func TestConsumeWithinBudget(t *testing.T) {
	g := New(1000, 0.1) // effective 900

	if !g.CanAfford(100) {
		t.Fatal("should afford 100 of 900")
	}
	if !g.Consume(100) {
		t.Fatal("consume of 100 should succeed")
	}
	if got := g.Used(); got != 100 {
		t.Errorf("Used() = %d, want 100", got)
	}
	if got := g.Remaining(); got != 800 {
		t.Errorf("Remaining() = %d, want 800", got)
	}
}

func TestConsumeRefusedAtLimit(t *testing.T) {
	g := New(1000, 0.1) // effective 900

	for i := 0; i < 9; i++ {
		if !g.Consume(100) {
			t.Fatalf("consume %d should succeed", i)
		}
	}
	if g.CanAfford(1) {
		t.Error("should not afford anything at the limit")
	}
	if g.Consume(1) {
		t.Error("consume past the limit should fail")
	}
	if got := g.Used(); got != 900 {
		t.Errorf("Used() = %d, want 900 (never past effective limit)", got)
	}
	if got := g.Remaining(); got != 0 {
		t.Errorf("Remaining() = %d, want 0", got)
	}
}

func TestDailyResetAtBillingMidnight(t *testing.T) {
	g := New(1000, 0.1)

	// Pin the clock to 23:30 billing time, spend, then cross midnight.
	base := time.Date(2026, 3, 10, 23, 30, 0, 0, billingZone)
	g.now = func() time.Time { return base }
	g.lastReset = base

	if !g.Consume(500) {
		t.Fatal("consume should succeed")
	}
	if got := g.Used(); got != 500 {
		t.Fatalf("Used() = %d, want 500", got)
	}

	g.now = func() time.Time { return base.Add(time.Hour) } // 00:30 next day
	if got := g.Used(); got != 0 {
		t.Errorf("Used() = %d after billing midnight, want 0", got)
	}
	if !g.Consume(900) {
		t.Error("full budget should be available after reset")
	}
}

func TestNoResetWithinSameBillingDay(t *testing.T) {
	g := New(1000, 0.1)

	base := time.Date(2026, 3, 10, 8, 0, 0, 0, billingZone)
	g.now = func() time.Time { return base }
	g.lastReset = base

	g.Consume(300)
	g.now = func() time.Time { return base.Add(10 * time.Hour) } // 18:00 same day
	if got := g.Used(); got != 300 {
		t.Errorf("Used() = %d, want 300 (same billing day)", got)
	}
}
