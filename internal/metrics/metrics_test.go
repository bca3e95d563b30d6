// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordSyncCycle(t *testing.T) {
	tests := []struct {
		name   string
		counts CycleCounts
		status string
	}{
		{
			name:   "clean cycle",
			counts: CycleCounts{Fetched: 3, Posted: 2, Duplicates: 1},
			status: "clean",
		},
		{
			name:   "resolve failure marks cycle partial",
			counts: CycleCounts{Fetched: 2, Posted: 1, ResolveFailures: 1},
			status: "partial",
		},
		{
			name:   "post failure marks cycle partial",
			counts: CycleCounts{Fetched: 1, PostFailures: 1},
			status: "partial",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			beforeCycles := testutil.ToFloat64(SyncCycles.WithLabelValues(tt.status))
			beforeFetched := testutil.ToFloat64(SyncCallsFetched)
			beforePosted := testutil.ToFloat64(SyncActivitiesPosted)

			var before dto.Metric
			if err := SyncDuration.Write(&before); err != nil {
				t.Fatalf("write histogram: %v", err)
			}

			RecordSyncCycle(250*time.Millisecond, tt.counts)

			if got := testutil.ToFloat64(SyncCycles.WithLabelValues(tt.status)) - beforeCycles; got != 1 {
				t.Errorf("cycles{%s} delta = %v, want 1", tt.status, got)
			}
			if got := testutil.ToFloat64(SyncCallsFetched) - beforeFetched; got != float64(tt.counts.Fetched) {
				t.Errorf("fetched delta = %v, want %d", got, tt.counts.Fetched)
			}
			if got := testutil.ToFloat64(SyncActivitiesPosted) - beforePosted; got != float64(tt.counts.Posted) {
				t.Errorf("posted delta = %v, want %d", got, tt.counts.Posted)
			}

			var after dto.Metric
			if err := SyncDuration.Write(&after); err != nil {
				t.Fatalf("write histogram: %v", err)
			}
			if got := after.GetHistogram().GetSampleCount() - before.GetHistogram().GetSampleCount(); got != 1 {
				t.Errorf("histogram sample delta = %d, want 1", got)
			}
			if testutil.ToFloat64(SyncLastSuccess) == 0 {
				t.Error("last success timestamp not set")
			}
		})
	}
}

func TestRecordClientRequest(t *testing.T) {
	before200 := testutil.ToFloat64(ClientRequests.WithLabelValues("close", "200"))
	beforeErr := testutil.ToFloat64(ClientRequests.WithLabelValues("close", "error"))

	RecordClientRequest("close", 200, 10*time.Millisecond)
	RecordClientRequest("close", 0, time.Second)

	if got := testutil.ToFloat64(ClientRequests.WithLabelValues("close", "200")) - before200; got != 1 {
		t.Errorf("200 delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(ClientRequests.WithLabelValues("close", "error")) - beforeErr; got != 1 {
		t.Errorf("error delta = %v, want 1", got)
	}
}

func TestRecordSessionRefresh(t *testing.T) {
	beforeOK := testutil.ToFloat64(SessionRefreshes.WithLabelValues("success"))
	beforeFail := testutil.ToFloat64(SessionRefreshes.WithLabelValues("failure"))

	RecordSessionRefresh(nil)
	RecordSessionRefresh(errors.New("invalid_grant"))

	if got := testutil.ToFloat64(SessionRefreshes.WithLabelValues("success")) - beforeOK; got != 1 {
		t.Errorf("success delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(SessionRefreshes.WithLabelValues("failure")) - beforeFail; got != 1 {
		t.Errorf("failure delta = %v, want 1", got)
	}
}

func TestRecordEventPublishAndAPIRequest(t *testing.T) {
	topic := "callbridge.cycle.completed"
	before := testutil.ToFloat64(EventsPublished.WithLabelValues(topic, "failure"))
	RecordEventPublish(topic, errors.New("nats: no responders"))
	if got := testutil.ToFloat64(EventsPublished.WithLabelValues(topic, "failure")) - before; got != 1 {
		t.Errorf("event failure delta = %v, want 1", got)
	}

	beforeAPI := testutil.ToFloat64(APIRequests.WithLabelValues("/api/v1/sync/trigger", "202"))
	RecordAPIRequest("/api/v1/sync/trigger", 202)
	if got := testutil.ToFloat64(APIRequests.WithLabelValues("/api/v1/sync/trigger", "202")) - beforeAPI; got != 1 {
		t.Errorf("api delta = %v, want 1", got)
	}
}
