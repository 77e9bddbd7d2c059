// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pick Engine Metrics
	PickRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pick_requests_total",
			Help: "Total number of pick requests",
		},
		[]string{"mode", "outcome"}, // outcome: "ok", "empty", "invalid", "upstream", "error"
	)

	PickDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pick_duration_seconds",
			Help:    "End-to-end pick request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"mode"},
	)

	PickCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pick_candidates",
			Help:    "Catalog candidates fetched per pick before hard filters",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000},
		},
	)

	PickFiltered = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pick_filtered_candidates",
			Help:    "Candidates removed by hard filters per pick",
			Buckets: []float64{0, 5, 10, 25, 50, 100, 250},
		},
	)

	PickDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pick_degraded_total",
			Help: "Total number of picks served in degraded (zero-signal) mode",
		},
	)

	// Signal Snapshot Metrics
	SnapshotRebuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_snapshot_rebuilds_total",
			Help: "Total number of signal snapshot rebuilds",
		},
		[]string{"signal", "trigger"}, // signal: "taste", "crew"; trigger: "event", "periodic", "miss"
	)

	SnapshotRebuildErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_snapshot_rebuild_errors_total",
			Help: "Total number of failed signal snapshot rebuilds",
		},
		[]string{"signal"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "mood", "guide", "taste", "crew"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// NATS Event Processing Metrics
	NATSMessagesConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_consumed_total",
			Help: "Total number of rating events consumed from NATS",
		},
	)

	NATSMessagesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_processed_total",
			Help: "Total number of rating events successfully processed",
		},
	)

	NATSMessagesParseFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_parse_failed_total",
			Help: "Total number of rating events that failed to parse",
		},
	)

	NATSMessagesThrottled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_throttled_total",
			Help: "Total number of rebuild triggers skipped by the per-user rate limit",
		},
	)

	NATSProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nats_processing_duration_seconds",
			Help:    "Duration of rating event processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordPick records one pick request.
func RecordPick(mode, outcome string, duration time.Duration, candidates, filtered int, degraded bool) {
	PickRequests.WithLabelValues(mode, outcome).Inc()
	PickDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if outcome == "ok" || outcome == "empty" {
		PickCandidates.Observe(float64(candidates))
		PickFiltered.Observe(float64(filtered))
	}
	if degraded {
		PickDegraded.Inc()
	}
}

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordSnapshotRebuild records a signal snapshot rebuild.
func RecordSnapshotRebuild(signal, trigger string, err error) {
	SnapshotRebuilds.WithLabelValues(signal, trigger).Inc()
	if err != nil {
		SnapshotRebuildErrors.WithLabelValues(signal).Inc()
	}
}

// RecordCacheAccess records a cache hit or miss.
func RecordCacheAccess(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
	} else {
		CacheMisses.WithLabelValues(cacheType).Inc()
	}
}

// RecordCircuitBreakerTransition records a breaker state change.
func RecordCircuitBreakerTransition(name, from, to string, toState float64) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(toState)
}
