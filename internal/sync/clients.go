// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package sync

import (
	"context"

	"github.com/tomtom215/callbridge/internal/closecrm"
	"github.com/tomtom215/callbridge/internal/models"
	"github.com/tomtom215/callbridge/internal/ringcentral"
)

// CustomFieldClient reads and writes lead custom fields.
type CustomFieldClient interface {
	GetCustomField(ctx context.Context, leadID, field string) (string, error)
	SetCustomField(ctx context.Context, leadID, field, value string) error
}

// CRMClient is the subset of the Close API the engine uses.
type CRMClient interface {
	CustomFieldClient
	QueryLeadsByPhone(ctx context.Context, phone string, offset int) (models.LeadPage, error)
	CreateLead(ctx context.Context, phone string) (string, error)
	QueryCallActivities(ctx context.Context, leadID, sinceDate string) ([]models.CallActivity, error)
	PostCallActivity(ctx context.Context, payload models.ActivityPayload) (string, error)
}

// TelephonyClient is the subset of the RingCentral API the engine uses.
type TelephonyClient interface {
	Login(ctx context.Context) error
	RefreshSession(ctx context.Context) error
	HasSession() bool
	GetCallLog(ctx context.Context, q models.CallLogQuery, page int) (*models.CallLogPage, error)
}

// EventPublisher receives sync events. Publishing is best effort.
type EventPublisher interface {
	PublishActivityPosted(ctx context.Context, ev *models.ActivityPostedEvent) error
	PublishCycleCompleted(ctx context.Context, ev *models.CycleCompletedEvent) error
}

var (
	_ CRMClient       = (*closecrm.Client)(nil)
	_ TelephonyClient = (*ringcentral.Client)(nil)
)
