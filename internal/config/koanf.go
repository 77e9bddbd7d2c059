// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/reelcircle/config.yaml",
	"/etc/reelcircle/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config
// file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8480,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:        "/data/reelcircle.duckdb",
			MaxMemory:   "2GB",
			Threads:     0, // 0 = use runtime.NumCPU()
			SeedDevData: false,
		},
		Cache: CacheConfig{
			Path: "/data/signals",
		},
		NATS: NATSConfig{
			Enabled:             false,
			URL:                 "nats://127.0.0.1:4222",
			EmbeddedServer:      false,
			StoreDir:            "/data/nats/jetstream",
			StreamRetentionDays: 7,
			DurableName:         "pick-rebuilder",
			QueueGroup:          "rebuilders",
			RebuildsPerSecond:   0.2, // at most one rebuild per user per 5s burst window
			RebuildBurst:        1,
		},
		API: APIConfig{
			DefaultPageSize: 10,
			MaxPageSize:     50,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Pick: PickConfig{
			SoloWeights: WeightsConfig{
				Taste:      0.40,
				Crew:       0.20,
				Mood:       0.20,
				Popularity: 0.20,
				Penalty:    0.30,
			},
			GroupWeights: WeightsConfig{
				Taste:      0.35,
				Crew:       0.15,
				Mood:       0.25,
				Popularity: 0.25,
				Penalty:    0.30,
			},
			OverfetchFactor:     5,
			MaxGroupSize:        8,
			NeutralCrewAffinity: 0.5,
			CrewHalfLifeDays:    180,
			CrewMinTitles:       2,
			RecentWindowDays:    30,
			PopularityCap:       500,
			ControversialStdDev: 25.0,
			UnanimousMinScore:   80.0,
			SnapshotTTL:         15 * time.Minute,
			RebuildInterval:     6 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML config file (if present)
//  3. Environment variables: override any setting
//
// Precedence is ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority).
	// PICK_SOLO_WEIGHT_TASTE -> pick.solo_weights.taste
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
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

// sliceConfigPaths defines which config paths are parsed as comma-separated
// slices when set via environment variables.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars arrive as strings but the config expects
// slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML or defaults)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are skipped so random environment variables cannot
// pollute the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		// Database mappings
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",
		"seed_dev_data":     "database.seed_dev_data",

		// Signal cache mappings
		"signal_cache_path": "cache.path",

		// NATS mappings
		"nats_enabled":             "nats.enabled",
		"nats_url":                 "nats.url",
		"nats_embedded":            "nats.embedded_server",
		"nats_store_dir":           "nats.store_dir",
		"nats_retention_days":      "nats.stream_retention_days",
		"nats_durable_name":        "nats.durable_name",
		"nats_queue_group":         "nats.queue_group",
		"nats_rebuilds_per_second": "nats.rebuilds_per_second",
		"nats_rebuild_burst":       "nats.rebuild_burst",

		// API mappings
		"api_default_page_size": "api.default_page_size",
		"api_max_page_size":     "api.max_page_size",
		"rate_limit_requests":   "api.rate_limit_reqs",
		"rate_limit_window":     "api.rate_limit_window",
		"cors_origins":          "api.cors_origins",

		// Pick engine mappings
		"pick_solo_weight_taste":       "pick.solo_weights.taste",
		"pick_solo_weight_crew":        "pick.solo_weights.crew",
		"pick_solo_weight_mood":        "pick.solo_weights.mood",
		"pick_solo_weight_popularity":  "pick.solo_weights.popularity",
		"pick_solo_weight_penalty":     "pick.solo_weights.penalty",
		"pick_group_weight_taste":      "pick.group_weights.taste",
		"pick_group_weight_crew":       "pick.group_weights.crew",
		"pick_group_weight_mood":       "pick.group_weights.mood",
		"pick_group_weight_popularity": "pick.group_weights.popularity",
		"pick_group_weight_penalty":    "pick.group_weights.penalty",
		"pick_overfetch_factor":        "pick.overfetch_factor",
		"pick_max_group_size":          "pick.max_group_size",
		"pick_neutral_crew_affinity":   "pick.neutral_crew_affinity",
		"pick_crew_half_life_days":     "pick.crew_half_life_days",
		"pick_crew_min_titles":         "pick.crew_min_titles",
		"pick_recent_window_days":      "pick.recent_window_days",
		"pick_popularity_cap":          "pick.popularity_cap",
		"pick_controversial_std_dev":   "pick.controversial_std_dev",
		"pick_unanimous_min_score":     "pick.unanimous_min_score",
		"pick_snapshot_ttl":            "pick.snapshot_ttl",
		"pick_rebuild_interval":        "pick.rebuild_interval",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}
