// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package models

// LeadRef is a lead returned by a search restricted to _fields=id.
type LeadRef struct {
	ID string `json:"id"`
}

// LeadPage is one page of GET /lead/.
type LeadPage struct {
	Data    []LeadRef `json:"data"`
	HasMore bool      `json:"has_more"`
}

// CallActivity is an existing call activity, fetched with _fields=id,note.
type CallActivity struct {
	ID   string `json:"id"`
	Note string `json:"note,omitempty"`
}

// CallActivityPage is one page of GET /activity/call/.
type CallActivityPage struct {
	Data    []CallActivity `json:"data"`
	HasMore bool           `json:"has_more"`
}

// ActivityPayload is the body of POST /activity/call/.
//
// Empty fields are never sent. Duration is always sent: zero is a real
// talk time, not an absent one.
type ActivityPayload struct {
	LeadID      string `json:"lead_id,omitempty"`
	Duration    int    `json:"duration"`
	Direction   string `json:"direction,omitempty"`
	RemotePhone string `json:"remote_phone,omitempty"`
	DateCreated string `json:"date_created,omitempty"`
	Note        string `json:"note,omitempty"`
}

// Map returns the payload as a field map with empty values removed.
func (p *ActivityPayload) Map() map[string]interface{} {
	m := map[string]interface{}{
		"duration": p.Duration,
	}
	for key, value := range map[string]string{
		"lead_id":      p.LeadID,
		"direction":    p.Direction,
		"remote_phone": p.RemotePhone,
		"date_created": p.DateCreated,
		"note":         p.Note,
	} {
		if value != "" {
			m[key] = value
		}
	}
	return m
}
