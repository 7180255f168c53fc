// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, first hit wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/nichescout/config.yaml",
	"/etc/nichescout/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from layered sources:
//  1. Struct defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSecondsFields(k); err != nil {
		return nil, fmt.Errorf("failed to process interval fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps environment variable names (lowercased) to config paths.
// Unmapped variables are ignored so unrelated environment noise cannot
// leak into the configuration.
var envMappings = map[string]string{
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"database_url":               "database.url",
	"database_max_conns":         "database.max_conns",
	"database_conn_max_lifetime": "database.conn_max_lifetime",

	"platform_api_key":      "platform.api_key",
	"platform_base_url":     "platform.base_url",
	"platform_daily_quota":  "platform.daily_quota",
	"platform_quota_buffer": "platform.quota_buffer",
	"platform_region":       "platform.region",
	"platform_language":     "platform.language",
	"platform_timeout":      "platform.timeout",

	"embedding_api_key":    "embedding.api_key",
	"embedding_base_url":   "embedding.base_url",
	"embedding_model":      "embedding.model",
	"embedding_dim":        "embedding.dim",
	"embedding_batch_size": "embedding.batch_size",

	"ingest_seeds_per_run":    "ingest.seeds_per_run",
	"ingest_videos_per_seed":  "ingest.videos_per_seed",
	"ingest_longtail_queries": "ingest.longtail_queries",
	"ingest_max_per_channel":  "ingest.max_per_channel",
	"ingest_min_views_24h":    "ingest.min_views_24h",
	"ingest_min_views_7d":     "ingest.min_views_7d",
	"ingest_min_views_30d":    "ingest.min_views_30d",
	"ingest_interval_seconds": "ingest.interval",

	"snapshot_batch_size":       "snapshot.batch_size",
	"snapshot_tier_a_hours":     "snapshot.tier_a_hours",
	"snapshot_tier_b_hours":     "snapshot.tier_b_hours",
	"snapshot_tier_c_hours":     "snapshot.tier_c_hours",
	"snapshot_max_per_run":      "snapshot.max_per_run",
	"snapshot_interval_seconds": "snapshot.interval",

	"cluster_min_size":  "cluster.min_size",
	"umap_n_components": "cluster.reduce_components",
	"umap_n_neighbors":  "cluster.reduce_neighbors",

	"ops_listen_addr": "ops.listen_addr",
	"ops_timeout":     "ops.timeout",
}

// secondsPaths lists config paths whose env values are bare second counts
// (legacy *_SECONDS variables) rather than Go duration strings.
var secondsPaths = map[string]bool{
	"ingest.interval":   true,
	"snapshot.interval": true,
}

// envTransformFunc maps environment variable names to koanf config paths.
// Variables without a mapping are dropped (empty return).
func envTransformFunc(key string) string {
	mapped, ok := envMappings[strings.ToLower(key)]
	if !ok {
		return ""
	}
	return mapped
}

// processSecondsFields rewrites bare second counts ("600") into duration
// strings ("600s") so they unmarshal into time.Duration fields.
func processSecondsFields(k *koanf.Koanf) error {
	for path := range secondsPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		if _, err := strconv.Atoi(strVal); err == nil {
			if err := k.Set(path, strVal+"s"); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}
