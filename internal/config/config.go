// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

// Package config loads and validates the ReelCircle pick-service
// configuration from layered sources: built-in defaults, an optional YAML
// file, and environment variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the pick service.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Cache    CacheConfig    `koanf:"cache"`
	NATS     NATSConfig     `koanf:"nats"`
	API      APIConfig      `koanf:"api"`
	Pick     PickConfig     `koanf:"pick"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Port is the HTTP listen port.
	Port int `koanf:"port"`
	// Host is the HTTP listen address.
	Host string `koanf:"host"`
	// Timeout bounds request read/write durations.
	Timeout time.Duration `koanf:"timeout"`
	// Environment is "development" or "production".
	Environment string `koanf:"environment"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file. Empty means in-memory.
	Path string `koanf:"path"`
	// MaxMemory limits DuckDB memory usage, e.g. "2GB".
	MaxMemory string `koanf:"max_memory"`
	// Threads is the DuckDB thread count. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`
	// SeedDevData loads a small development dataset at startup.
	SeedDevData bool `koanf:"seed_dev_data"`
}

// CacheConfig holds BadgerDB settings for the mood and content-guide caches.
type CacheConfig struct {
	// Path is the Badger data directory. Empty means in-memory.
	Path string `koanf:"path"`
}

// NATSConfig holds event-stream settings for rating events.
type NATSConfig struct {
	// Enabled turns the rating-event consumer on.
	Enabled bool `koanf:"enabled"`
	// URL is the NATS server address.
	URL string `koanf:"url"`
	// EmbeddedServer runs an in-process NATS server (single-binary mode).
	EmbeddedServer bool `koanf:"embedded_server"`
	// StoreDir is the JetStream storage directory for the embedded server.
	StoreDir string `koanf:"store_dir"`
	// StreamRetentionDays bounds rating-event stream age.
	StreamRetentionDays int `koanf:"stream_retention_days"`
	// DurableName is the JetStream durable consumer prefix.
	DurableName string `koanf:"durable_name"`
	// QueueGroup enables load-balanced consumption across instances.
	QueueGroup string `koanf:"queue_group"`
	// RebuildsPerSecond caps per-user profile rebuilds triggered by events.
	RebuildsPerSecond float64 `koanf:"rebuilds_per_second"`
	// RebuildBurst is the per-user rebuild limiter burst.
	RebuildBurst int `koanf:"rebuild_burst"`
}

// APIConfig holds API behavior settings.
type APIConfig struct {
	// DefaultPageSize is the page size when the request omits one.
	DefaultPageSize int `koanf:"default_page_size"`
	// MaxPageSize caps the requested page size.
	MaxPageSize int `koanf:"max_page_size"`
	// RateLimitReqs is the allowed request count per window per IP.
	RateLimitReqs int `koanf:"rate_limit_reqs"`
	// RateLimitWindow is the rate-limit window.
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	// CORSOrigins lists allowed CORS origins.
	CORSOrigins []string `koanf:"cors_origins"`
}

// PickConfig holds the ranking engine's tunable parameters. The engine keeps
// its own config type; cmd/server maps this section onto it at startup.
type PickConfig struct {
	// SoloWeights are the composite weights for solo requests.
	SoloWeights WeightsConfig `koanf:"solo_weights"`
	// GroupWeights are the composite weights for group requests.
	GroupWeights WeightsConfig `koanf:"group_weights"`
	// OverfetchFactor multiplies the page size when querying candidates so
	// hard filters still leave a full page.
	OverfetchFactor int `koanf:"overfetch_factor"`
	// MaxGroupSize caps group member count.
	MaxGroupSize int `koanf:"max_group_size"`
	// NeutralCrewAffinity substitutes for unknown crew affinity.
	NeutralCrewAffinity float64 `koanf:"neutral_crew_affinity"`
	// CrewHalfLifeDays is the recency-decay half-life for crew affinity.
	CrewHalfLifeDays float64 `koanf:"crew_half_life_days"`
	// CrewMinTitles is the minimum rated titles per person before an
	// affinity is considered known.
	CrewMinTitles int `koanf:"crew_min_titles"`
	// RecentWindowDays bounds the "seen similar recently" penalty window.
	RecentWindowDays int `koanf:"recent_window_days"`
	// PopularityCap is the rating count treated as maximum popularity.
	PopularityCap int `koanf:"popularity_cap"`
	// ControversialStdDev is the score stddev above which a title is
	// flagged controversial.
	ControversialStdDev float64 `koanf:"controversial_std_dev"`
	// UnanimousMinScore is the floor all scores must meet for the
	// unanimous-favorite flag.
	UnanimousMinScore float64 `koanf:"unanimous_min_score"`
	// SnapshotTTL bounds taste/crew snapshot staleness before a lazy
	// rebuild.
	SnapshotTTL time.Duration `koanf:"snapshot_ttl"`
	// RebuildInterval is the period of the background refresh service.
	RebuildInterval time.Duration `koanf:"rebuild_interval"`
}

// WeightsConfig holds composite-score weights for one request mode.
type WeightsConfig struct {
	Taste      float64 `koanf:"taste"`
	Crew       float64 `koanf:"crew"`
	Mood       float64 `koanf:"mood"`
	Popularity float64 `koanf:"popularity"`
	Penalty    float64 `koanf:"penalty"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("api.default_page_size must be positive, got %d", c.API.DefaultPageSize)
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("api.max_page_size (%d) must be >= api.default_page_size (%d)",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	if c.Pick.OverfetchFactor < 1 {
		return fmt.Errorf("pick.overfetch_factor must be >= 1, got %d", c.Pick.OverfetchFactor)
	}
	if c.Pick.MaxGroupSize < 2 {
		return fmt.Errorf("pick.max_group_size must be >= 2, got %d", c.Pick.MaxGroupSize)
	}
	if c.Pick.NeutralCrewAffinity < 0 || c.Pick.NeutralCrewAffinity > 1 {
		return fmt.Errorf("pick.neutral_crew_affinity must be in [0,1], got %f", c.Pick.NeutralCrewAffinity)
	}
	if c.Pick.CrewHalfLifeDays <= 0 {
		return fmt.Errorf("pick.crew_half_life_days must be positive, got %f", c.Pick.CrewHalfLifeDays)
	}
	if c.Pick.CrewMinTitles < 1 {
		return fmt.Errorf("pick.crew_min_titles must be >= 1, got %d", c.Pick.CrewMinTitles)
	}
	if c.Pick.PopularityCap < 1 {
		return fmt.Errorf("pick.popularity_cap must be >= 1, got %d", c.Pick.PopularityCap)
	}
	if err := validateWeights("pick.solo_weights", c.Pick.SoloWeights); err != nil {
		return err
	}
	if err := validateWeights("pick.group_weights", c.Pick.GroupWeights); err != nil {
		return err
	}
	if c.NATS.Enabled {
		if c.NATS.URL == "" && !c.NATS.EmbeddedServer {
			return fmt.Errorf("nats.url is required when nats.enabled is true without an embedded server")
		}
		if c.NATS.RebuildsPerSecond <= 0 {
			return fmt.Errorf("nats.rebuilds_per_second must be positive, got %f", c.NATS.RebuildsPerSecond)
		}
	}
	return nil
}

func validateWeights(section string, w WeightsConfig) error {
	fields := []struct {
		name string
		val  float64
	}{
		{"taste", w.Taste},
		{"crew", w.Crew},
		{"mood", w.Mood},
		{"popularity", w.Popularity},
		{"penalty", w.Penalty},
	}
	for _, f := range fields {
		if f.val < 0 {
			return fmt.Errorf("%s.%s must be non-negative, got %f", section, f.name, f.val)
		}
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
