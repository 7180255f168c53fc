// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

// Package api provides the worker's internal ops listener: liveness and
// readiness probes plus the Prometheus scrape endpoint. It carries no
// product surface; niche results are read straight from the store by
// downstream consumers.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nichescout/nichescout/internal/logging"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ops serves the health and metrics endpoints.
type Ops struct {
	db        Pinger
	startTime time.Time
}

// NewOps creates the ops handler set. db may be nil in modes that run
// without a store; readiness then reports not ready.
func NewOps(db Pinger) *Ops {
	return &Ops{db: db, startTime: time.Now()}
}

// Router builds the ops route tree.
func (o *Ops) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", o.Healthz)
	r.Get("/readyz", o.Readyz)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Server builds the http.Server for the ops listener.
func (o *Ops) Server(addr string, timeout time.Duration) *http.Server {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Server{
		Addr:              addr,
		Handler:           o.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}
}

// Healthz is the liveness probe: 200 whenever the process is up,
// regardless of dependencies.
func (o *Ops) Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"alive":          true,
		"uptime_seconds": time.Since(o.startTime).Seconds(),
	})
}

// Readyz is the readiness probe: 200 only when the store answers a
// ping, 503 otherwise.
func (o *Ops) Readyz(w http.ResponseWriter, r *http.Request) {
	dbConnected := o.db != nil && o.db.Ping(r.Context()) == nil

	status := http.StatusOK
	if !dbConnected {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, map[string]any{
		"ready":              dbConnected,
		"database_connected": dbConnected,
		"uptime_seconds":     time.Since(o.startTime).Seconds(),
	})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("failed to encode ops response")
	}
}
