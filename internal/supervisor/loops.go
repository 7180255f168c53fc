// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package supervisor

import (
	"context"
	"time"

	"github.com/nichescout/nichescout/internal/logging"
)

// Loop adapts a pipeline unit to suture.Service, running it once
// immediately and then on a fixed interval. A failing pass is logged
// and waits for the next tick; only context cancellation ends the
// service, so supervisor restarts are reserved for panics.
type Loop struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
}

// NewLoop creates a named interval loop around run.
func NewLoop(name string, interval time.Duration, run func(ctx context.Context) error) *Loop {
	return &Loop{name: name, interval: interval, run: run}
}

// Serve implements suture.Service.
func (l *Loop) Serve(ctx context.Context) error {
	logging.Ctx(ctx).Info().
		Str("loop", l.name).
		Dur("interval", l.interval).
		Msg("loop started")

	l.runOnce(ctx)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Ctx(ctx).Info().Str("loop", l.name).Msg("loop stopped")
			return ctx.Err()
		case <-ticker.C:
			l.runOnce(ctx)
		}
	}
}

func (l *Loop) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := l.run(ctx); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("loop", l.name).Msg("loop pass failed")
	}
}

// String implements fmt.Stringer; suture uses it in event logs.
func (l *Loop) String() string {
	return l.name
}
