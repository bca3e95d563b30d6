// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/callbridge/internal/cache"
	"github.com/tomtom215/callbridge/internal/logging"
	"github.com/tomtom215/callbridge/internal/models"
)

var (
	// ErrSyncInProgress is returned by TriggerSync while a cycle runs.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrAlreadyRunning is returned by Start on a started manager.
	ErrAlreadyRunning = errors.New("sync manager is already running")

	// ErrNotRunning is returned by Stop and TriggerSync before Start.
	ErrNotRunning = errors.New("sync manager is not running")
)

// State is the orchestrator state.
type State string

// Orchestrator states.
const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// Schedule is a cron expression; empty means every Interval.
	Schedule string
	Interval time.Duration

	// Concurrency is the number of call records processed in parallel.
	Concurrency int

	// RunOnStart runs one cycle as soon as Start is called.
	RunOnStart bool

	// Lookback is logged only; the checkpoint store applies it.
	Lookback time.Duration

	// PostedCacheSize bounds the memo of (lead, call) pairs already posted
	// by this process. Zero disables it.
	PostedCacheSize int
	PostedCacheTTL  time.Duration

	Fetcher FetcherConfig
}

// Manager runs sync cycles on a schedule and on demand.
type Manager struct {
	cfg        ManagerConfig
	fetcher    *CallFetcher
	resolver   *LeadResolver
	dedup      *DedupChecker
	crm        CRMClient
	checkpoint CheckpointStore
	publisher  EventPublisher
	posted     *cache.LRUCache // nil when disabled

	// now is replaced in tests.
	now func() time.Time

	mu         sync.RWMutex
	running    bool
	state      State
	lastSync   time.Time
	lastResult *models.CycleResult
	cron       *cron.Cron
	cancel     context.CancelFunc
	runCtx     context.Context

	syncMu sync.Mutex // one cycle at a time
	wg     sync.WaitGroup
}

// NewManager wires the engine components around the two API clients and a
// checkpoint store.
func NewManager(cfg ManagerConfig, telephony TelephonyClient, crm CRMClient, checkpoint CheckpointStore) *Manager {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	logging.Info().
		Str("schedule", cfg.Schedule).
		Dur("interval", cfg.Interval).
		Dur("lookback", cfg.Lookback).
		Int("concurrency", cfg.Concurrency).
		Dur("page_delay", cfg.Fetcher.PageDelay).
		Msg("Sync manager config loaded")

	var posted *cache.LRUCache
	if cfg.PostedCacheSize > 0 {
		posted = cache.NewLRUCache(cfg.PostedCacheSize, cfg.PostedCacheTTL)
	}

	return &Manager{
		cfg:        cfg,
		fetcher:    NewCallFetcher(telephony, cfg.Fetcher),
		resolver:   NewLeadResolver(crm),
		dedup:      NewDedupChecker(crm),
		crm:        crm,
		checkpoint: checkpoint,
		posted:     posted,
		now:        time.Now,
		state:      StateIdle,
	}
}

// SetEventPublisher sets the optional publisher for sync events.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publisher = p
}

func (m *Manager) eventPublisher() EventPublisher {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.publisher
}

// Start schedules cycles and, when configured, runs the first one
// immediately in the background.
func (m *Manager) Start(ctx context.Context) error {
	spec, err := scheduleSpec(m.cfg.Schedule, m.cfg.Interval)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := newScheduler()
	if _, err := c.AddFunc(spec, func() { m.RunCycle(runCtx) }); err != nil {
		m.mu.Unlock()
		cancel()
		return fmt.Errorf("schedule sync: %w", err)
	}

	m.running = true
	m.cron = c
	m.cancel = cancel
	m.runCtx = runCtx
	if m.cfg.RunOnStart {
		m.wg.Add(1)
	}
	m.mu.Unlock()

	c.Start()
	logging.Info().Str("schedule", spec).Msg("Sync manager started")

	if m.cfg.RunOnStart {
		go func() {
			defer m.wg.Done()
			m.RunCycle(runCtx)
		}()
	}
	return nil
}

// Stop cancels any in-flight cycle and waits for it to return.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return ErrNotRunning
	}
	m.running = false
	c, cancel := m.cron, m.cancel
	m.mu.Unlock()

	logging.Info().Msg("Stopping sync manager...")
	cancel()
	<-c.Stop().Done()
	m.wg.Wait()
	logging.Info().Msg("Sync manager stopped")
	return nil
}

// Running reports whether Start has been called without a matching Stop.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// State returns Idle or Running.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// LastSyncTime returns the window end of the last completed cycle.
func (m *Manager) LastSyncTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSync
}

// LastResult returns a copy of the last cycle result, or nil.
func (m *Manager) LastResult() *models.CycleResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastResult == nil {
		return nil
	}
	r := *m.lastResult
	return &r
}

// NextRun returns the next scheduled cycle, or zero when stopped.
func (m *Manager) NextRun() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.running || m.cron == nil {
		return time.Time{}
	}
	entries := m.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunCycle runs one cycle, waiting for any cycle already in progress.
func (m *Manager) RunCycle(ctx context.Context) models.CycleResult {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()
	return m.runCycleLocked(ctx)
}

// TriggerSync starts a cycle in the background. It returns
// ErrSyncInProgress instead of waiting when a cycle is already running.
func (m *Manager) TriggerSync() error {
	m.mu.RLock()
	if !m.running {
		m.mu.RUnlock()
		return ErrNotRunning
	}
	if !m.syncMu.TryLock() {
		m.mu.RUnlock()
		return ErrSyncInProgress
	}
	runCtx := m.runCtx
	m.wg.Add(1)
	m.mu.RUnlock()

	go func() {
		defer m.wg.Done()
		defer m.syncMu.Unlock()
		logging.Info().Msg("Manual sync triggered")
		m.runCycleLocked(runCtx)
	}()
	return nil
}
