// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package models

import "time"

// ActivityPostedEvent is published after a call activity is created.
type ActivityPostedEvent struct {
	EventID       string    `json:"event_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	CallID        string    `json:"call_id"`
	LeadID        string    `json:"lead_id"`
	ActivityID    string    `json:"activity_id,omitempty"`
	RemotePhone   string    `json:"remote_phone"`
	Direction     string    `json:"direction"`
	Duration      int       `json:"duration"`
	DateCreated   string    `json:"date_created"`
	PostedAt      time.Time `json:"posted_at"`
}

// CycleCompletedEvent is published at the end of every sync cycle.
type CycleCompletedEvent struct {
	EventID string      `json:"event_id"`
	Result  CycleResult `json:"result"`
	Partial bool        `json:"partial"`
}
