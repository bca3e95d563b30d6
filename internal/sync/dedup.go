// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package sync

import (
	"context"
	"strings"

	"github.com/tomtom215/callbridge/internal/logging"
)

// DedupChecker decides whether a call is already logged on a lead.
type DedupChecker struct {
	crm CRMClient
}

// NewDedupChecker creates a checker backed by crm.
func NewDedupChecker(crm CRMClient) *DedupChecker {
	return &DedupChecker{crm: crm}
}

// AlreadyLogged reports whether any call activity on leadID created on or
// after sinceDate has a note containing callID. Existing CRM history is
// matched on the note text, so the check stays a plain substring search.
// A failed query reports false so the call is posted rather than lost.
func (d *DedupChecker) AlreadyLogged(ctx context.Context, leadID, callID, sinceDate string) bool {
	if callID == "" {
		return false
	}
	activities, err := d.crm.QueryCallActivities(ctx, leadID, sinceDate)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("lead_id", leadID).Str("call_id", callID).Msg("Could not check whether call is already on lead")
		return false
	}
	for i := range activities {
		if note := activities[i].Note; note != "" && strings.Contains(note, callID) {
			logging.Ctx(ctx).Debug().Str("lead_id", leadID).Str("call_id", callID).Msg("Call already logged on lead")
			return true
		}
	}
	return false
}
