// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package models

import "time"

// SyncWindow is the half-open interval [From, To) covered by one cycle.
type SyncWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CycleResult is the tally of one sync cycle. Every per-record outcome is
// folded in here; none of them abort the cycle.
type CycleResult struct {
	CorrelationID   string        `json:"correlation_id"`
	Window          SyncWindow    `json:"window"`
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration_ns"`
	Fetched         int           `json:"fetched"`
	Skipped         int           `json:"skipped"`
	LeadsResolved   int           `json:"leads_resolved"`
	ResolveFailures int           `json:"resolve_failures"`
	Duplicates      int           `json:"duplicates"`
	Posted          int           `json:"posted"`
	PostFailures    int           `json:"post_failures"`
}

// Partial reports whether any record failed to resolve or post.
func (r *CycleResult) Partial() bool {
	return r.ResolveFailures > 0 || r.PostFailures > 0
}
