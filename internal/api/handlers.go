// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/callbridge/internal/logging"
	"github.com/tomtom215/callbridge/internal/models"
	intsync "github.com/tomtom215/callbridge/internal/sync"
)

// SyncController is the part of the sync manager the API uses.
// Implemented by *sync.Manager.
type SyncController interface {
	Running() bool
	State() intsync.State
	LastSyncTime() time.Time
	LastResult() *models.CycleResult
	NextRun() time.Time
	TriggerSync() error
}

// SessionChecker reports whether a telephony session exists.
// Implemented by *ringcentral.Client.
type SessionChecker interface {
	HasSession() bool
}

// Handler serves the API routes.
type Handler struct {
	sync      SyncController
	session   SessionChecker
	startTime time.Time
}

// NewHandler creates a handler.
func NewHandler(sync SyncController, session SessionChecker) *Handler {
	return &Handler{sync: sync, session: session, startTime: time.Now()}
}

// HealthResponse is the body of the health routes.
type HealthResponse struct {
	Status         string  `json:"status"`
	SyncRunning    bool    `json:"sync_running"`
	SessionPresent bool    `json:"session_present"`
	Uptime         float64 `json:"uptime_seconds"`
}

// SyncStatusResponse is the body of GET /sync/status.
type SyncStatusResponse struct {
	State      intsync.State       `json:"state"`
	Running    bool                `json:"running"`
	LastSync   *time.Time          `json:"last_sync,omitempty"`
	NextRun    *time.Time          `json:"next_run,omitempty"`
	LastResult *models.CycleResult `json:"last_result,omitempty"`
}

// HealthLive always answers 200.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, HealthResponse{
		Status: "alive",
		Uptime: time.Since(h.startTime).Seconds(),
	})
}

// HealthReady answers 200 once the sync manager is running and a
// RingCentral session exists, else 503.
func (h *Handler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	running := h.sync != nil && h.sync.Running()
	session := h.session != nil && h.session.HasSession()

	health := HealthResponse{
		Status:         "ready",
		SyncRunning:    running,
		SessionPresent: session,
		Uptime:         time.Since(h.startTime).Seconds(),
	}
	if !running || !session {
		health.Status = "not_ready"
		respondJSON(w, http.StatusServiceUnavailable, &models.APIResponse{
			Status:   "error",
			Data:     health,
			Metadata: models.Metadata{Timestamp: time.Now().UTC()},
			Error:    &models.APIError{Code: "NOT_READY", Message: "Sync manager or RingCentral session unavailable"},
		})
		return
	}
	respondSuccess(w, http.StatusOK, health)
}

// SyncStatus reports the orchestrator state and last cycle.
func (h *Handler) SyncStatus(w http.ResponseWriter, _ *http.Request) {
	if h.sync == nil {
		respondError(w, http.StatusServiceUnavailable, "SYNC_UNAVAILABLE", "Sync manager not configured", nil)
		return
	}

	status := SyncStatusResponse{
		State:      h.sync.State(),
		Running:    h.sync.Running(),
		LastResult: h.sync.LastResult(),
	}
	if t := h.sync.LastSyncTime(); !t.IsZero() {
		status.LastSync = &t
	}
	if t := h.sync.NextRun(); !t.IsZero() {
		status.NextRun = &t
	}
	respondSuccess(w, http.StatusOK, status)
}

// SyncTrigger starts one cycle in the background.
func (h *Handler) SyncTrigger(w http.ResponseWriter, r *http.Request) {
	if h.sync == nil {
		respondError(w, http.StatusServiceUnavailable, "SYNC_UNAVAILABLE", "Sync manager not configured", nil)
		return
	}

	err := h.sync.TriggerSync()
	switch {
	case err == nil:
		logging.Ctx(r.Context()).Info().Msg("Sync triggered via API")
		respondSuccess(w, http.StatusAccepted, map[string]string{"message": "Sync started"})
	case errors.Is(err, intsync.ErrSyncInProgress):
		respondError(w, http.StatusConflict, "SYNC_IN_PROGRESS", "A sync cycle is already running", nil)
	case errors.Is(err, intsync.ErrNotRunning):
		respondError(w, http.StatusServiceUnavailable, "SYNC_NOT_RUNNING", "Sync manager is not running", nil)
	default:
		respondError(w, http.StatusInternalServerError, "SYNC_TRIGGER_FAILED", "Failed to start sync", err)
	}
}
