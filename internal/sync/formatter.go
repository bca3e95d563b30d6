// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package sync

import (
	"fmt"
	"strings"

	"github.com/tomtom215/callbridge/internal/models"
)

const noteHeader = "RingCentral Call:"

// noteLine is one "Key: value" line of a call note.
type noteLine struct {
	key   string
	value string
}

// BuildNote renders the note attached to a call activity. Lines appear in
// a fixed order and empty values are left out. The bool is false when no
// line has a value.
//
// The RC ID line is what DedupChecker searches for, so its format must not
// change.
func BuildNote(call *models.CallRecord, users string) (string, bool) {
	var duration string
	if call.Duration != nil {
		duration = PrettyDuration(*call.Duration)
	}

	lines := []noteLine{
		{"RC ID", call.ID},
		{"From", call.FromNumber()},
		{"To", call.ToNumber()},
		{"Duration", duration},
		{"Direction", call.Direction},
		{"Result", call.Result},
		{"Reason", call.Reason},
		{"Reason Description", call.ReasonDescription},
		{"RC Users", users},
	}

	var b strings.Builder
	b.WriteString(noteHeader)
	present := 0
	for _, l := range lines {
		if l.value == "" {
			continue
		}
		b.WriteByte('\n')
		b.WriteString(l.key)
		b.WriteString(": ")
		b.WriteString(l.value)
		present++
	}
	if present == 0 {
		return "", false
	}
	return b.String(), true
}

// BuildPayload maps a call to the activity posted on leadID. A missed call
// with a nonzero duration is logged with duration 0, and the note reflects
// the override.
func BuildPayload(call models.CallRecord, leadID, remotePhone, users string) models.ActivityPayload {
	if call.Result == models.ResultMissed && call.DurationSeconds() != 0 {
		zero := 0
		call.Duration = &zero
	}

	direction := strings.ToLower(call.Direction)
	if direction == "" {
		direction = "outbound"
	}

	payload := models.ActivityPayload{
		LeadID:      leadID,
		Duration:    call.DurationSeconds(),
		Direction:   direction,
		RemotePhone: remotePhone,
		DateCreated: strings.ReplaceAll(call.StartTime, "Z", "+00:00"),
	}
	if note, ok := BuildNote(&call, users); ok {
		payload.Note = note
	}
	return payload
}

// PrettyDuration renders seconds as "1d 2h 3m 4s", dropping leading zero
// units. Negative input is treated as its absolute value.
func PrettyDuration(seconds int) string {
	if seconds < 0 {
		seconds = -seconds
	}
	days, seconds := seconds/86400, seconds%86400
	hours, seconds := seconds/3600, seconds%3600
	minutes, seconds := seconds/60, seconds%60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// FindUsers returns the names of the extensions that accepted the call,
// from-side before to-side, joined with ", ".
func FindUsers(legs []models.CallLeg) string {
	var users []string
	for i := range legs {
		leg := &legs[i]
		if leg.LegType != models.LegTypeAccept {
			continue
		}
		for _, party := range []*models.CallParty{leg.From, leg.To} {
			if party != nil && party.ExtensionID != "" && party.Name != "" {
				users = append(users, party.Name)
			}
		}
	}
	return strings.Join(users, ", ")
}

// dedupSinceDate returns the date part of a provider start time.
func dedupSinceDate(startTime string) string {
	if i := strings.IndexByte(startTime, 'T'); i >= 0 {
		return startTime[:i]
	}
	return startTime
}
