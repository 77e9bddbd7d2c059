// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

// Package store is the DuckDB persistence layer: ratings, the catalog
// slice, crew credits, and dismissed-title records. All queries run with a
// bounded per-query timeout and return wrapped errors for upstream
// classification.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/reelcircle/reelcircle/internal/config"
	"github.com/reelcircle/reelcircle/internal/metrics"
	"github.com/reelcircle/reelcircle/internal/models"
)

// queryTimeout bounds individual query execution.
const queryTimeout = 30 * time.Second

// DB wraps the DuckDB connection and provides data access methods.
type DB struct {
	conn   *sql.DB
	cfg    *config.DatabaseConfig
	logger zerolog.Logger

	// candidateBreaker guards the candidate query, the one external call
	// the picker cannot degrade around.
	candidateBreaker *gobreaker.CircuitBreaker[[]models.Title]
}

// New opens (or creates) the database and initializes the schema.
// An empty path opens an in-memory database.
func New(cfg *config.DatabaseConfig, logger zerolog.Logger) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure the parent directory exists for file-backed databases.
	if cfg.Path != "" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "2GB"
	}
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:   conn,
		cfg:    cfg,
		logger: logger.With().Str("component", "store").Logger(),
	}
	db.candidateBreaker = gobreaker.NewCircuitBreaker[[]models.Title](gobreaker.Settings{
		Name:    "catalog-candidates",
		Timeout: 15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			db.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String(), breakerStateValue(to))
		},
	})

	if err := db.initialize(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Close releases the database connection.
func (db *DB) Close() error {
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Ping verifies database connectivity for readiness checks.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// initialize creates the schema when absent.
func (db *DB) initialize() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			name VARCHAR NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS titles (
			id BIGINT PRIMARY KEY,
			name VARCHAR NOT NULL,
			media_type VARCHAR NOT NULL,
			year INTEGER NOT NULL DEFAULT 0,
			runtime_minutes INTEGER NOT NULL DEFAULT 0,
			content_rating VARCHAR NOT NULL DEFAULT '',
			genres VARCHAR NOT NULL DEFAULT '',
			providers VARCHAR NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS credits (
			title_id BIGINT NOT NULL,
			person_id BIGINT NOT NULL,
			person_name VARCHAR NOT NULL,
			role VARCHAR NOT NULL,
			billing INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (title_id, person_id, role)
		)`,
		`CREATE TABLE IF NOT EXISTS ratings (
			user_id BIGINT NOT NULL,
			title_id BIGINT NOT NULL,
			score DOUBLE NOT NULL,
			comment VARCHAR NOT NULL DEFAULT '',
			rated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, title_id)
		)`,
		`CREATE TABLE IF NOT EXISTS dismissed (
			user_id BIGINT NOT NULL,
			title_id BIGINT NOT NULL,
			dismissed_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, title_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_title ON ratings (title_id)`,
		`CREATE INDEX IF NOT EXISTS idx_credits_person ON credits (person_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// splitAndTrim splits a comma-separated column value into clean parts.
func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// joinList renders a slice as the comma-separated column format.
func joinList(parts []string) string {
	return strings.Join(parts, ",")
}
