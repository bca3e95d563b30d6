// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package services

import (
	"context"
	"fmt"
)

// StartStopper is satisfied by *sync.Manager and *sync.Refresher. Start
// returns once background work is launched; Stop blocks until it exits.
type StartStopper interface {
	Start(ctx context.Context) error
	Stop() error
}

// SyncService supervises a StartStopper.
type SyncService struct {
	component StartStopper
	name      string
}

// NewSyncService wraps the sync manager.
//
//	manager := sync.NewManager(managerCfg, rc, crm, store)
//	tree.AddSyncService(services.NewSyncService(manager))
func NewSyncService(manager StartStopper) *SyncService {
	return &SyncService{component: manager, name: "sync-manager"}
}

// NewSessionRefresherService wraps the RingCentral session refresher.
func NewSessionRefresherService(refresher StartStopper) *SyncService {
	return &SyncService{component: refresher, name: "session-refresher"}
}

// Serve implements suture.Service.
func (s *SyncService) Serve(ctx context.Context) error {
	if err := s.component.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}

	<-ctx.Done()

	if err := s.component.Stop(); err != nil {
		return fmt.Errorf("%s stop failed: %w", s.name, err)
	}
	return ctx.Err()
}

// String names the service in supervisor logs.
func (s *SyncService) String() string {
	return s.name
}
