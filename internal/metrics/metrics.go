// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync cycle metrics
	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "callbridge_sync_duration_seconds",
			Help:    "Duration of sync cycles in seconds",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	SyncCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callbridge_sync_cycles_total",
			Help: "Total number of sync cycles by status",
		},
		[]string{"status"}, // "clean", "partial"
	)

	SyncCallsFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "callbridge_sync_calls_fetched_total",
			Help: "Total number of call records fetched from RingCentral",
		},
	)

	SyncActivitiesPosted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "callbridge_sync_activities_posted_total",
			Help: "Total number of call activities posted to Close",
		},
	)

	SyncDuplicates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "callbridge_sync_duplicates_total",
			Help: "Total number of calls already present on a lead",
		},
	)

	SyncSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "callbridge_sync_skipped_total",
			Help: "Total number of call records skipped for missing id, start time, or remote phone",
		},
	)

	SyncResolveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "callbridge_sync_resolve_failures_total",
			Help: "Total number of calls dropped because lead resolution failed",
		},
	)

	SyncPostFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "callbridge_sync_post_failures_total",
			Help: "Total number of call activities that failed to post",
		},
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "callbridge_sync_last_success_timestamp",
			Help: "Unix timestamp of the last completed sync cycle",
		},
	)

	FetchPages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "callbridge_fetch_pages_total",
			Help: "Total number of call-log pages fetched",
		},
	)

	LeadsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "callbridge_leads_created_total",
			Help: "Total number of leads created for unknown phone numbers",
		},
	)

	CheckpointErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callbridge_checkpoint_errors_total",
			Help: "Total number of checkpoint read or write failures",
		},
		[]string{"op"}, // "read", "write"
	)

	SessionRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callbridge_session_refresh_total",
			Help: "Total number of RingCentral session refresh attempts by status",
		},
		[]string{"status"},
	)

	// Upstream client metrics
	ClientRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callbridge_client_requests_total",
			Help: "Total number of upstream API requests by client and HTTP status",
		},
		[]string{"client", "status"},
	)

	ClientRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "callbridge_client_request_duration_seconds",
			Help:    "Duration of upstream API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"client"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "callbridge_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callbridge_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callbridge_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Event bus metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callbridge_events_published_total",
			Help: "Total number of sync events published by topic and status",
		},
		[]string{"topic", "status"},
	)

	// HTTP API metrics
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callbridge_api_requests_total",
			Help: "Total number of HTTP API requests by route and status",
		},
		[]string{"route", "status"},
	)
)

// CycleCounts is the per-cycle tally recorded after each sync.
type CycleCounts struct {
	Fetched         int
	Skipped         int
	Duplicates      int
	Posted          int
	ResolveFailures int
	PostFailures    int
}

// RecordSyncCycle records the outcome of one sync cycle. A cycle with any
// resolve or post failure is labeled partial.
func RecordSyncCycle(duration time.Duration, c CycleCounts) {
	SyncDuration.Observe(duration.Seconds())
	SyncCallsFetched.Add(float64(c.Fetched))
	SyncSkipped.Add(float64(c.Skipped))
	SyncDuplicates.Add(float64(c.Duplicates))
	SyncActivitiesPosted.Add(float64(c.Posted))
	SyncResolveFailures.Add(float64(c.ResolveFailures))
	SyncPostFailures.Add(float64(c.PostFailures))

	status := "clean"
	if c.ResolveFailures > 0 || c.PostFailures > 0 {
		status = "partial"
	}
	SyncCycles.WithLabelValues(status).Inc()
	SyncLastSuccess.SetToCurrentTime()
}

// RecordClientRequest records one upstream HTTP round trip. A status of 0
// means the request never produced a response.
func RecordClientRequest(client string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	ClientRequests.WithLabelValues(client, label).Inc()
	ClientRequestDuration.WithLabelValues(client).Observe(duration.Seconds())
}

// RecordSessionRefresh records a RingCentral token refresh attempt.
func RecordSessionRefresh(err error) {
	if err != nil {
		SessionRefreshes.WithLabelValues("failure").Inc()
		return
	}
	SessionRefreshes.WithLabelValues("success").Inc()
}

// RecordEventPublish records one event publish attempt.
func RecordEventPublish(topic string, err error) {
	if err != nil {
		EventsPublished.WithLabelValues(topic, "failure").Inc()
		return
	}
	EventsPublished.WithLabelValues(topic, "success").Inc()
}

// RecordAPIRequest records one HTTP API request.
func RecordAPIRequest(route string, status int) {
	APIRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
