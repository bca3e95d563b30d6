// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/callbridge/internal/api"
	"github.com/tomtom215/callbridge/internal/config"
)

func TestManagerConfig(t *testing.T) {
	cfg := &config.Config{
		RingCentral: config.RingCentralConfig{PageDelay: 6 * time.Second, PerPage: 250},
		Sync: config.SyncConfig{
			Interval:        time.Minute,
			IntervalSeconds: 90,
			Schedule:        "",
			Lookback:        300 * time.Second,
			Concurrency:     4,
			RunOnStart:      true,
			PostedCacheSize: 500,
		},
	}

	got := managerConfig(cfg)
	if got.Interval != 90*time.Second {
		t.Errorf("Interval = %v, want SECONDS override of 90s", got.Interval)
	}
	if got.Concurrency != 4 || !got.RunOnStart || got.Lookback != 300*time.Second {
		t.Errorf("managerConfig() = %+v", got)
	}
	if got.PostedCacheSize != 500 {
		t.Errorf("PostedCacheSize = %d, want 500", got.PostedCacheSize)
	}
	if got.Fetcher.PageDelay != 6*time.Second || got.Fetcher.PerPage != 250 {
		t.Errorf("Fetcher = %+v", got.Fetcher)
	}
}

func TestNewCloseClients(t *testing.T) {
	tests := []struct {
		name       string
		devKey     string
		wantShared bool
	}{
		{name: "no sandbox key", devKey: "", wantShared: true},
		{name: "same key", devKey: "key_main", wantShared: true},
		{name: "sandbox key", devKey: "key_dev", wantShared: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crm, anchor := newCloseClients(&config.CloseConfig{
				BaseURL:           "https://api.close.com/api/v1/",
				APIKey:            "key_main",
				DevAPIKey:         tt.devKey,
				RequestsPerSecond: 10,
				Burst:             5,
			})
			if (crm == anchor) != tt.wantShared {
				t.Errorf("shared client = %v, want %v", crm == anchor, tt.wantShared)
			}
		})
	}
}

func TestLoggingConfig(t *testing.T) {
	got := loggingConfig(&config.LoggingConfig{Level: "debug", Format: "console", Caller: true})
	if got.Level != "debug" || got.Format != "console" || !got.Caller {
		t.Errorf("loggingConfig() = %+v", got)
	}
	if !got.Timestamp || got.Output == nil {
		t.Error("loggingConfig() dropped the default timestamp or output")
	}
}

func TestNewHTTPServer(t *testing.T) {
	server, err := newHTTPServer(&config.APIConfig{Addr: ":0", RateLimit: 100, RateLimitWindow: time.Minute}, nil, nil)
	if err != nil {
		t.Fatalf("newHTTPServer() error = %v", err)
	}
	if server.Addr != ":0" || server.ReadHeaderTimeout == 0 {
		t.Errorf("server = %+v", server)
	}

	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", rec.Code)
	}
}

func TestIssueAPIToken(t *testing.T) {
	const secret = "test-secret-at-least-32-characters-long"

	token, err := issueAPIToken(&config.APIConfig{JWTSecret: secret}, "ops", time.Hour)
	if err != nil {
		t.Fatalf("issueAPIToken() error = %v", err)
	}
	jm, _ := api.NewJWTManager(secret)
	claims, err := jm.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Subject != "ops" {
		t.Errorf("subject = %q, want ops", claims.Subject)
	}

	if _, err := issueAPIToken(&config.APIConfig{}, "ops", time.Hour); err == nil {
		t.Error("issueAPIToken() without a secret returned nil error")
	}
}
