// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/callbridge/internal/logging"
)

// DefaultRefreshInterval renews the one-hour access token with a margin.
const DefaultRefreshInterval = 3400 * time.Second

// RefresherConfig configures a Refresher.
type RefresherConfig struct {
	Interval      time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// Refresher renews the RingCentral session on its own schedule. The
// client's session lock keeps a refresh from overlapping a page request.
type Refresher struct {
	client TelephonyClient
	cfg    RefresherConfig

	mu          sync.RWMutex
	running     bool
	cron        *cron.Cron
	cancel      context.CancelFunc
	lastRefresh time.Time
	lastErr     error
}

// NewRefresher creates a refresher. Zero values take defaults: the
// refresh interval, 3 attempts and a 2s first retry delay.
func NewRefresher(client TelephonyClient, cfg RefresherConfig) *Refresher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultRefreshInterval
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &Refresher{client: client, cfg: cfg}
}

// Refresh renews the session, retrying with backoff.
func (r *Refresher) Refresh(ctx context.Context) error {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	err := retryWithBackoff(ctx, r.cfg.RetryAttempts, r.cfg.RetryDelay, func() error {
		return r.client.RefreshSession(ctx)
	})

	r.mu.Lock()
	r.lastErr = err
	if err == nil {
		r.lastRefresh = time.Now()
	}
	r.mu.Unlock()

	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to refresh RingCentral session")
		return fmt.Errorf("refresh session: %w", err)
	}
	logging.Ctx(ctx).Info().Msg("Token for RingCentral was refreshed")
	return nil
}

// Start schedules Refresh every Interval.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("session refresher is already running")
	}

	spec, err := scheduleSpec("", r.cfg.Interval)
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(ctx)
	c := newScheduler()
	if _, err := c.AddFunc(spec, func() { _ = r.Refresh(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("schedule refresh: %w", err)
	}
	c.Start()

	r.running = true
	r.cron = c
	r.cancel = cancel
	logging.Info().Dur("interval", r.cfg.Interval).Msg("Session refresher started")
	return nil
}

// Stop cancels a pending refresh and waits for it to return.
func (r *Refresher) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return fmt.Errorf("session refresher is not running")
	}
	r.running = false
	c, cancel := r.cron, r.cancel
	r.mu.Unlock()

	cancel()
	<-c.Stop().Done()
	logging.Info().Msg("Session refresher stopped")
	return nil
}

// LastRefresh returns the time of the last successful refresh and the
// error of the last attempt.
func (r *Refresher) LastRefresh() (time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastRefresh, r.lastErr
}
