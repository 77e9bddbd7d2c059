// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

/*
Package metrics provides Prometheus metrics collection and export for observability.

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8480/metrics

# Available Metrics

Pick Engine:
  - pick_requests_total: Pick requests (counter)
    Labels: mode (solo, group), outcome (ok, empty, invalid, upstream, error)
  - pick_duration_seconds: End-to-end pick latency (histogram)
    Labels: mode
  - pick_candidates: Candidates fetched before hard filters (histogram)
  - pick_filtered_candidates: Candidates removed by hard filters (histogram)
  - pick_degraded_total: Picks served without any taste signal (counter)

Signal Snapshots:
  - signal_snapshot_rebuilds_total: Snapshot rebuilds (counter)
    Labels: signal (taste, crew), trigger (event, periodic, miss)
  - signal_snapshot_rebuild_errors_total: Failed rebuilds (counter)
    Labels: signal

Cache:
  - cache_hits_total / cache_misses_total: Cache efficiency (counters)
    Labels: cache_type (mood, guide, taste, crew)

Database:
  - duckdb_query_duration_seconds: Query execution time (histogram)
    Labels: operation, table
  - duckdb_query_errors_total: Failed queries (counter)
    Labels: operation, table, error_type

HTTP API:
  - api_requests_total: API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: In-flight requests (gauge)

NATS Event Processing:
  - nats_messages_consumed_total: Rating events consumed (counter)
  - nats_messages_processed_total: Events processed (counter)
  - nats_messages_parse_failed_total: Unparseable events (counter)
  - nats_messages_throttled_total: Rebuilds skipped by per-user rate limit (counter)
  - nats_processing_duration_seconds: Event handling latency (histogram)

Circuit Breaker:
  - circuit_breaker_state: Current state (gauge, 0=closed 1=half-open 2=open)
    Labels: name
  - circuit_breaker_state_transitions_total: State transitions (counter)
    Labels: name, from_state, to_state

# Cardinality Management

Endpoint labels use chi route patterns, not raw paths. Error types are
truncated to 50 characters. User ids never become labels.

# Thread Safety

All recording functions are safe for concurrent use; the Prometheus client
library handles synchronization internally.
*/
package metrics
