// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package logging

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const runIDKey contextKey = "run_id"

var (
	// workerID identifies this process across restarts within a log stream.
	workerID = uuid.New().String()[:8]

	runCounter atomic.Uint64
)

// NewRunID returns a unique identifier for one pipeline run,
// "workerID-unixtime-counter". Run IDs tie together the per-stage events
// and the final summary of a single pass.
func NewRunID() string {
	return fmt.Sprintf("%s-%d-%d", workerID, time.Now().Unix(), runCounter.Add(1))
}

// WorkerID returns this process's short identifier.
func WorkerID() string {
	return workerID
}

// ContextWithRunID stores a run ID in the context.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the run ID, or "" when absent.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns a logger carrying the context's run ID, if any.
func Ctx(ctx context.Context) *zerolog.Logger {
	l := Logger()
	if id := RunIDFromContext(ctx); id != "" {
		l = l.With().Str("run_id", id).Logger()
	}
	return &l
}
