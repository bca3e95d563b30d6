// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package sync

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/callbridge/internal/cache"
	"github.com/tomtom215/callbridge/internal/logging"
	"github.com/tomtom215/callbridge/internal/metrics"
	"github.com/tomtom215/callbridge/internal/models"
)

// summaryTimeLayout renders window bounds in the cycle summary line.
const summaryTimeLayout = "01/02/06 03:04:05 PM"

// recordOutcome is what processing one call record produced.
type recordOutcome struct {
	skipped       bool
	resolveFailed bool
	leadsResolved int
	duplicates    int
	posted        int
	postFailures  int
}

func (r *recordOutcome) foldInto(res *models.CycleResult) {
	if r.skipped {
		res.Skipped++
	}
	if r.resolveFailed {
		res.ResolveFailures++
	}
	res.LeadsResolved += r.leadsResolved
	res.Duplicates += r.duplicates
	res.Posted += r.posted
	res.PostFailures += r.postFailures
}

// runCycleLocked runs one cycle. The caller holds syncMu.
func (m *Manager) runCycleLocked(ctx context.Context) models.CycleResult {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := logging.Ctx(ctx)

	m.setState(StateRunning)
	defer m.setState(StateIdle)

	started := m.now().UTC()
	now := started.Truncate(time.Second)

	from := m.checkpoint.Read(ctx, now).UTC()
	if from.After(now) {
		log.Warn().Time("checkpoint", from).Msg("Checkpoint is in the future, clamping to now")
		from = now
	}
	window := models.SyncWindow{From: from, To: now}

	records := m.fetcher.Fetch(ctx, window)

	result := models.CycleResult{
		CorrelationID: logging.CorrelationIDFromContext(ctx),
		Window:        window,
		StartedAt:     started,
		Fetched:       len(records),
	}
	outcomes := m.processRecords(ctx, records)
	for i := range outcomes {
		outcomes[i].foldInto(&result)
	}

	// A cycle cut short by shutdown leaves the checkpoint alone so the
	// unprocessed records are fetched again next time.
	if ctx.Err() == nil {
		m.checkpoint.Write(ctx, now)
	} else {
		log.Warn().Err(ctx.Err()).Msg("Sync cycle canceled, checkpoint not advanced")
	}

	result.Duration = m.now().Sub(started)
	log.Info().
		Int("fetched", result.Fetched).
		Int("skipped", result.Skipped).
		Int("leads_resolved", result.LeadsResolved).
		Int("resolve_failures", result.ResolveFailures).
		Int("duplicates", result.Duplicates).
		Int("posted", result.Posted).
		Int("post_failures", result.PostFailures).
		Dur("duration", result.Duration).
		Msgf("Ran sync between %s UTC - %s UTC", from.Format(summaryTimeLayout), now.Format(summaryTimeLayout))

	metrics.RecordSyncCycle(result.Duration, metrics.CycleCounts{
		Fetched:         result.Fetched,
		Skipped:         result.Skipped,
		Duplicates:      result.Duplicates,
		Posted:          result.Posted,
		ResolveFailures: result.ResolveFailures,
		PostFailures:    result.PostFailures,
	})

	m.mu.Lock()
	m.lastSync = now
	r := result
	m.lastResult = &r
	m.mu.Unlock()

	m.publishCycleCompleted(ctx, &result)
	return result
}

// processRecords handles records with up to cfg.Concurrency in flight.
// Records sharing a remote number run in order on one goroutine, so a
// number with no lead gets exactly one created lead per cycle.
func (m *Manager) processRecords(ctx context.Context, records []models.CallRecord) []recordOutcome {
	outcomes := make([]recordOutcome, len(records))
	if m.cfg.Concurrency <= 1 {
		for i := range records {
			outcomes[i] = m.processRecord(ctx, &records[i])
		}
		return outcomes
	}

	var g errgroup.Group
	g.SetLimit(m.cfg.Concurrency)
	for _, group := range groupByRemotePhone(records) {
		group := group
		g.Go(func() error {
			for _, i := range group {
				outcomes[i] = m.processRecord(ctx, &records[i])
			}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// groupByRemotePhone returns record indexes grouped by remote number, in
// order of first appearance.
func groupByRemotePhone(records []models.CallRecord) [][]int {
	byPhone := make(map[string]int, len(records))
	var groups [][]int
	for i := range records {
		phone := records[i].RemotePhone()
		g, ok := byPhone[phone]
		if !ok {
			g = len(groups)
			byPhone[phone] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

// processRecord resolves a call's leads and posts it on every lead that
// does not already have it.
func (m *Manager) processRecord(ctx context.Context, rec *models.CallRecord) recordOutcome {
	log := logging.Ctx(ctx).With().Str("call_id", rec.ID).Logger()

	remote := rec.RemotePhone()
	if rec.ID == "" || rec.StartTime == "" || rec.FromNumber() == "" || rec.ToNumber() == "" {
		log.Debug().Str("start_time", rec.StartTime).Str("direction", rec.Direction).Msg("Skipping call without id, start time or both phone numbers")
		return recordOutcome{skipped: true}
	}

	leads, err := m.resolver.Resolve(ctx, remote)
	if err != nil {
		log.Error().Err(err).Str("phone", remote).Msg("Failed to find Close leads for phone number")
		return recordOutcome{resolveFailed: true}
	}

	out := recordOutcome{leadsResolved: len(leads)}
	users := FindUsers(rec.Legs)
	since := dedupSinceDate(rec.StartTime)

	for _, leadID := range leads {
		key := cache.ActivityKey(leadID, rec.ID)
		if m.posted != nil && m.posted.Contains(key) {
			out.duplicates++
			continue
		}
		if m.dedup.AlreadyLogged(ctx, leadID, rec.ID, since) {
			out.duplicates++
			continue
		}

		payload := BuildPayload(*rec, leadID, remote, users)
		activityID, err := m.crm.PostCallActivity(ctx, payload)
		if err != nil {
			log.Error().Err(err).Str("lead_id", leadID).Msg("Failed to log call on Close lead")
			out.postFailures++
			continue
		}
		out.posted++
		if m.posted != nil {
			m.posted.Add(key, m.now())
		}
		log.Debug().Str("lead_id", leadID).Str("activity_id", activityID).Msg("Logged call on Close lead")
		m.publishActivityPosted(ctx, rec, &payload, activityID)
	}
	return out
}

func (m *Manager) publishActivityPosted(ctx context.Context, rec *models.CallRecord, payload *models.ActivityPayload, activityID string) {
	p := m.eventPublisher()
	if p == nil {
		return
	}
	ev := &models.ActivityPostedEvent{
		CorrelationID: logging.CorrelationIDFromContext(ctx),
		CallID:        rec.ID,
		LeadID:        payload.LeadID,
		ActivityID:    activityID,
		RemotePhone:   payload.RemotePhone,
		Direction:     payload.Direction,
		Duration:      payload.Duration,
		DateCreated:   payload.DateCreated,
		PostedAt:      m.now().UTC(),
	}
	if err := p.PublishActivityPosted(ctx, ev); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("call_id", rec.ID).Msg("Failed to publish activity event")
	}
}

func (m *Manager) publishCycleCompleted(ctx context.Context, result *models.CycleResult) {
	p := m.eventPublisher()
	if p == nil {
		return
	}
	ev := &models.CycleCompletedEvent{Result: *result, Partial: result.Partial()}
	if err := p.PublishCycleCompleted(context.WithoutCancel(ctx), ev); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to publish cycle event")
	}
}
