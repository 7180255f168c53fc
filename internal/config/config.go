// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

// Package config loads the worker configuration from defaults, an optional
// YAML file, and environment variables, in that order of precedence.
// The loaded Config is immutable after startup; no package reads the
// environment afterwards.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the complete worker configuration.
type Config struct {
	Logging   LoggingConfig   `koanf:"logging"`
	Database  DatabaseConfig  `koanf:"database"`
	Platform  PlatformConfig  `koanf:"platform"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Snapshot  SnapshotConfig  `koanf:"snapshot"`
	Cluster   ClusterConfig   `koanf:"cluster"`
	Ops       OpsConfig       `koanf:"ops"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// DatabaseConfig holds the relational store settings.
type DatabaseConfig struct {
	// URL is the Postgres connection string. Query parameters used only
	// by foreign ORMs (schema, pgbouncer) are stripped before use.
	URL string `koanf:"url"`

	MaxConns        int           `koanf:"max_conns" validate:"min=1"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// PlatformConfig holds the video platform API settings and quota budget.
type PlatformConfig struct {
	// APIKey is required for ingest and snapshot modes only.
	APIKey string `koanf:"api_key"`

	BaseURL string `koanf:"base_url" validate:"url"`

	// DailyQuota is the daily unit budget; Buffer is the safety ratio
	// withheld from it (0.1 keeps 10% in reserve).
	DailyQuota int     `koanf:"daily_quota" validate:"min=1"`
	Buffer     float64 `koanf:"quota_buffer" validate:"gte=0,lt=1"`

	Region   string        `koanf:"region"`
	Language string        `koanf:"language"`
	Timeout  time.Duration `koanf:"timeout"`
}

// EmbeddingConfig holds the embedder settings.
type EmbeddingConfig struct {
	// APIKey is required for process and embed modes only.
	APIKey string `koanf:"api_key"`

	BaseURL   string `koanf:"base_url" validate:"url"`
	Model     string `koanf:"model" validate:"required"`
	Dim       int    `koanf:"dim" validate:"min=1"`
	BatchSize int    `koanf:"batch_size" validate:"min=1,max=2048"`
}

// IngestConfig tunes the feeders and gating.
type IngestConfig struct {
	SeedsPerRun     int `koanf:"seeds_per_run" validate:"min=1"`
	VideosPerSeed   int `koanf:"videos_per_seed" validate:"min=1,max=50"`
	LongtailQueries int `koanf:"longtail_queries" validate:"min=0"`
	MaxPerChannel   int `koanf:"max_per_channel" validate:"min=1"`

	MinViews24h int `koanf:"min_views_24h"`
	MinViews7d  int `koanf:"min_views_7d"`
	MinViews30d int `koanf:"min_views_30d"`

	Interval time.Duration `koanf:"interval"`
}

// SnapshotConfig tunes the tiered snapshot scheduler. Tier assignment
// thresholds (48h/7d age, 10000/1000 velocity) are fixed policy; only the
// per-tier re-sample intervals are configurable.
type SnapshotConfig struct {
	BatchSize  int           `koanf:"batch_size" validate:"min=1,max=50"`
	TierAHours int           `koanf:"tier_a_hours" validate:"min=1"`
	TierBHours int           `koanf:"tier_b_hours" validate:"min=1"`
	TierCHours int           `koanf:"tier_c_hours" validate:"min=1"`
	MaxPerRun  int           `koanf:"max_per_run" validate:"min=1"`
	Interval   time.Duration `koanf:"interval"`
}

// ClusterConfig tunes embedding reduction and density clustering.
type ClusterConfig struct {
	MinSize          int `koanf:"min_size" validate:"min=2"`
	ReduceComponents int `koanf:"reduce_components" validate:"min=2"`
	ReduceNeighbors  int `koanf:"reduce_neighbors" validate:"min=2"`
}

// OpsConfig configures the internal ops listener (health and metrics).
type OpsConfig struct {
	ListenAddr string        `koanf:"listen_addr"`
	Timeout    time.Duration `koanf:"timeout"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Database: DatabaseConfig{
			URL:             "",
			MaxConns:        8,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Platform: PlatformConfig{
			APIKey:     "",
			BaseURL:    "https://www.googleapis.com/youtube/v3",
			DailyQuota: 10000,
			Buffer:     0.1,
			Region:     "US",
			Language:   "en",
			Timeout:    30 * time.Second,
		},
		Embedding: EmbeddingConfig{
			APIKey:    "",
			BaseURL:   "https://api.openai.com/v1",
			Model:     "text-embedding-3-small",
			Dim:       1536,
			BatchSize: 100,
		},
		Ingest: IngestConfig{
			SeedsPerRun:     5,
			VideosPerSeed:   10,
			LongtailQueries: 5,
			MaxPerChannel:   5,
			MinViews24h:     100,
			MinViews7d:      500,
			MinViews30d:     2000,
			Interval:        600 * time.Second,
		},
		Snapshot: SnapshotConfig{
			BatchSize:  50,
			TierAHours: 4,
			TierBHours: 12,
			TierCHours: 24,
			MaxPerRun:  500,
			Interval:   300 * time.Second,
		},
		Cluster: ClusterConfig{
			MinSize:          5,
			ReduceComponents: 25,
			ReduceNeighbors:  15,
		},
		Ops: OpsConfig{
			ListenAddr: ":9090",
			Timeout:    30 * time.Second,
		},
	}
}

// Validate checks structural constraints that hold for every mode.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Snapshot.TierAHours > c.Snapshot.TierBHours || c.Snapshot.TierBHours > c.Snapshot.TierCHours {
		return fmt.Errorf("snapshot tier intervals must be ordered A <= B <= C, got %d/%d/%d",
			c.Snapshot.TierAHours, c.Snapshot.TierBHours, c.Snapshot.TierCHours)
	}
	return nil
}

// RequirePlatformKey fails when the platform credential is missing.
// Called for modes that hit the metered platform API (ingest, snapshot).
func (c *Config) RequirePlatformKey() error {
	if c.Platform.APIKey == "" {
		return fmt.Errorf("PLATFORM_API_KEY is required for this mode")
	}
	return nil
}

// RequireEmbeddingKey fails when the embedder credential is missing.
// Called for modes that embed titles (process, embed).
func (c *Config) RequireEmbeddingKey() error {
	if c.Embedding.APIKey == "" {
		return fmt.Errorf("EMBEDDING_API_KEY is required for this mode")
	}
	return nil
}

// MinViewsFor returns the ingest view floor for a window in days.
func (c *IngestConfig) MinViewsFor(days int) int {
	switch {
	case days <= 1:
		return c.MinViews24h
	case days <= 7:
		return c.MinViews7d
	default:
		return c.MinViews30d
	}
}
