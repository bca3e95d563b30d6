// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

/*
Package metrics holds the Prometheus collectors for Callbridge.

All collectors are registered on the default registry through promauto and
exposed by the HTTP API at /metrics:

	curl http://localhost:8080/metrics

# Available Metrics

Sync cycles:
  - callbridge_sync_duration_seconds: cycle latency histogram
  - callbridge_sync_cycles_total{status}: clean or partial cycles
  - callbridge_sync_calls_fetched_total, _activities_posted_total,
    _duplicates_total, _skipped_total
  - callbridge_sync_resolve_failures_total: calls lost to failed lead lookups
  - callbridge_sync_last_success_timestamp

Upstream clients:
  - callbridge_client_requests_total{client,status}
  - callbridge_client_request_duration_seconds{client}
  - callbridge_circuit_breaker_state{name}
  - callbridge_circuit_breaker_requests_total{name,result}
  - callbridge_circuit_breaker_transitions_total{name,from,to}

Other:
  - callbridge_fetch_pages_total, callbridge_leads_created_total
  - callbridge_checkpoint_errors_total{op}
  - callbridge_session_refresh_total{status}
  - callbridge_events_published_total{topic,status}
  - callbridge_api_requests_total{route,status}

callbridge_sync_resolve_failures_total is the one to alert on: the
checkpoint advances even when a phone number cannot be resolved, so those
calls are never retried.
*/
package metrics
