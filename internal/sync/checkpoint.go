// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/callbridge/internal/config"
	"github.com/tomtom215/callbridge/internal/logging"
	"github.com/tomtom215/callbridge/internal/metrics"
)

// DefaultLookback is the window start used when no checkpoint is readable.
const DefaultLookback = 300 * time.Second

const (
	// checkpointWriteLayout is the value stored on the anchor lead.
	checkpointWriteLayout = "2006-01-02T15:04:05+00:00"

	// checkpointReadLayout is parsed after any offset and fraction are cut.
	checkpointReadLayout = "2006-01-02T15:04:05"
)

// CheckpointStore persists the time of the last completed sync.
//
// Read never fails: a missing or unreadable value yields now minus the
// lookback. Write failures are logged and swallowed.
type CheckpointStore interface {
	Read(ctx context.Context, now time.Time) time.Time
	Write(ctx context.Context, t time.Time)
	Close() error
}

// NewCheckpointStore opens the backend selected by cfg. crm is the client
// used by the close backend and may be nil for the others.
func NewCheckpointStore(ctx context.Context, cfg *config.CheckpointConfig, lookback time.Duration, crm CustomFieldClient) (CheckpointStore, error) {
	switch cfg.Backend {
	case config.CheckpointBackendClose, "":
		if crm == nil {
			return nil, fmt.Errorf("close checkpoint backend requires a CRM client")
		}
		return NewCloseCheckpointStore(crm, cfg.AnchorLeadID, cfg.Field, lookback), nil
	case config.CheckpointBackendBadger:
		store, err := OpenBadgerCheckpointStore(cfg.BadgerPath, lookback)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.CheckpointBackendRedis:
		store, err := OpenRedisCheckpointStore(ctx, cfg.RedisURL, cfg.RedisKey, lookback)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown checkpoint backend %q", cfg.Backend)
	}
}

// fallbackTime is the window start used when no checkpoint is available.
func fallbackTime(now time.Time, lookback time.Duration) time.Time {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return now.Add(-lookback)
}

// FormatCheckpoint renders t the way the anchor lead stores it.
func FormatCheckpoint(t time.Time) string {
	return t.UTC().Format(checkpointWriteLayout)
}

// ParseCheckpoint parses a stored checkpoint as UTC. Any "+hh:mm" offset,
// trailing "Z" and fractional seconds are dropped first, so
// "2024-01-02T03:04:05.123+00:00" reads as 03:04:05 UTC.
func ParseCheckpoint(value string) (time.Time, error) {
	s := strings.SplitN(value, "+", 2)[0]
	s = strings.SplitN(s, ".", 2)[0]
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")
	t, err := time.ParseInLocation(checkpointReadLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse checkpoint %q: %w", value, err)
	}
	return t, nil
}

// CloseCheckpointStore keeps the checkpoint in a custom field of an anchor
// lead. An empty anchor id disables persistence.
type CloseCheckpointStore struct {
	crm          CustomFieldClient
	anchorLeadID string
	field        string
	lookback     time.Duration
}

// NewCloseCheckpointStore creates a close-backed store.
func NewCloseCheckpointStore(crm CustomFieldClient, anchorLeadID, field string, lookback time.Duration) *CloseCheckpointStore {
	return &CloseCheckpointStore{crm: crm, anchorLeadID: anchorLeadID, field: field, lookback: lookback}
}

// Read returns the stored checkpoint, or now minus the lookback.
func (s *CloseCheckpointStore) Read(ctx context.Context, now time.Time) time.Time {
	if s.anchorLeadID == "" {
		return fallbackTime(now, s.lookback)
	}

	value, err := s.crm.GetCustomField(ctx, s.anchorLeadID, s.field)
	if err != nil {
		metrics.CheckpointErrors.WithLabelValues("read").Inc()
		logging.Ctx(ctx).Error().Err(err).Str("lead_id", s.anchorLeadID).Msg("No anchor lead could be read, using default lookback")
		return fallbackTime(now, s.lookback)
	}
	if value == "" {
		return fallbackTime(now, s.lookback)
	}

	t, err := ParseCheckpoint(value)
	if err != nil {
		metrics.CheckpointErrors.WithLabelValues("read").Inc()
		logging.Ctx(ctx).Error().Err(err).Str("lead_id", s.anchorLeadID).Msg("Stored checkpoint is malformed, using default lookback")
		return fallbackTime(now, s.lookback)
	}
	return t
}

// Write stores t on the anchor lead. It is a no-op without an anchor.
func (s *CloseCheckpointStore) Write(ctx context.Context, t time.Time) {
	if s.anchorLeadID == "" {
		return
	}
	if err := s.crm.SetCustomField(ctx, s.anchorLeadID, s.field, FormatCheckpoint(t)); err != nil {
		metrics.CheckpointErrors.WithLabelValues("write").Inc()
		logging.Ctx(ctx).Error().Err(err).Str("lead_id", s.anchorLeadID).Msg("Could not update sync time on anchor lead")
	}
}

// Close is a no-op; the CRM client has no resources to release.
func (s *CloseCheckpointStore) Close() error {
	return nil
}
