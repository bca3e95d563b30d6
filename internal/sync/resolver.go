// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package sync

import (
	"context"
	"fmt"

	"github.com/tomtom215/callbridge/internal/logging"
	"github.com/tomtom215/callbridge/internal/metrics"
)

// LeadResolver maps a phone number to the leads carrying it.
type LeadResolver struct {
	crm CRMClient
}

// NewLeadResolver creates a resolver backed by crm.
func NewLeadResolver(crm CRMClient) *LeadResolver {
	return &LeadResolver{crm: crm}
}

// Resolve returns every lead whose phone_number matches phone, paging with
// _skip while has_more is set. When nothing matches it creates one lead
// with phone as an office number and returns that id. A failure on any
// request returns the error and no leads.
func (r *LeadResolver) Resolve(ctx context.Context, phone string) ([]string, error) {
	var leadIDs []string
	offset := 0
	for {
		page, err := r.crm.QueryLeadsByPhone(ctx, phone, offset)
		if err != nil {
			return nil, fmt.Errorf("find leads for %s: %w", phone, err)
		}
		for _, lead := range page.Data {
			leadIDs = append(leadIDs, lead.ID)
		}
		offset += len(page.Data)

		// An empty page claiming has_more would loop forever.
		if !page.HasMore || len(page.Data) == 0 {
			break
		}
	}

	if len(leadIDs) > 0 {
		return leadIDs, nil
	}

	id, err := r.crm.CreateLead(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("create lead for %s: %w", phone, err)
	}
	metrics.LeadsCreated.Inc()
	logging.Ctx(ctx).Info().Str("lead_id", id).Str("phone", phone).Msg("Created lead for unmatched phone number")
	return []string{id}, nil
}
