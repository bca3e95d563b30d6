// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package main

import (
	"net/http"
	"time"

	"github.com/tomtom215/callbridge/internal/api"
	"github.com/tomtom215/callbridge/internal/closecrm"
	"github.com/tomtom215/callbridge/internal/config"
	"github.com/tomtom215/callbridge/internal/logging"
	"github.com/tomtom215/callbridge/internal/ringcentral"
	intsync "github.com/tomtom215/callbridge/internal/sync"
)

func loggingConfig(cfg *config.LoggingConfig) logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = cfg.Level
	lc.Format = cfg.Format
	lc.Caller = cfg.Caller
	return lc
}

func newRingCentralClient(cfg *config.RingCentralConfig) *ringcentral.Client {
	return ringcentral.NewClient(ringcentral.Config{
		ServerURL:    cfg.ServerURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Username:     cfg.Username,
		Extension:    cfg.Extension,
		Password:     cfg.Password,
		Timeout:      cfg.Timeout,
	})
}

// newCloseClients returns the client for lead and activity traffic and the
// one for the checkpoint anchor lead. They share a client when no sandbox
// key is configured.
func newCloseClients(cfg *config.CloseConfig) (crm, checkpoint *closecrm.Client) {
	base := closecrm.Config{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		Timeout:           cfg.Timeout,
	}
	crm = closecrm.NewClient(base)
	if cfg.CheckpointAPIKey() == cfg.APIKey {
		return crm, crm
	}

	anchor := base
	anchor.APIKey = cfg.CheckpointAPIKey()
	anchor.Name = "close-checkpoint"
	return crm, closecrm.NewClient(anchor)
}

func managerConfig(cfg *config.Config) intsync.ManagerConfig {
	return intsync.ManagerConfig{
		Schedule:        cfg.Sync.Schedule,
		Interval:        cfg.Sync.EffectiveInterval(),
		Concurrency:     cfg.Sync.Concurrency,
		RunOnStart:      cfg.Sync.RunOnStart,
		Lookback:        cfg.Sync.Lookback,
		PostedCacheSize: cfg.Sync.PostedCacheSize,
		PostedCacheTTL:  cfg.Sync.PostedCacheTTL,
		Fetcher: intsync.FetcherConfig{
			PageDelay: cfg.RingCentral.PageDelay,
			PerPage:   cfg.RingCentral.PerPage,
		},
	}
}

func refresherConfig(cfg *config.RingCentralConfig) intsync.RefresherConfig {
	return intsync.RefresherConfig{Interval: cfg.RefreshInterval}
}

// newHTTPServer builds the status API server. sync and session may be nil.
func newHTTPServer(cfg *config.APIConfig, sync api.SyncController, session api.SessionChecker) (*http.Server, error) {
	router, err := api.NewRouter(cfg, api.NewHandler(sync, session))
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}, nil
}
