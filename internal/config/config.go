// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package config

import (
	"time"
)

// Checkpoint backends.
const (
	CheckpointBackendClose  = "close"
	CheckpointBackendBadger = "badger"
	CheckpointBackendRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	RingCentral RingCentralConfig `koanf:"ringcentral"`
	Close       CloseConfig       `koanf:"close"`
	Sync        SyncConfig        `koanf:"sync"`
	Checkpoint  CheckpointConfig  `koanf:"checkpoint"`
	Events      EventsConfig      `koanf:"events"`
	API         APIConfig         `koanf:"api"`
	Logging     LoggingConfig     `koanf:"logging"`
	Supervisor  SupervisorConfig  `koanf:"supervisor"`
}

// RingCentralConfig holds the telephony provider connection settings.
type RingCentralConfig struct {
	ServerURL    string `koanf:"server_url" validate:"required,url"`
	ClientID     string `koanf:"client_id" validate:"required"`
	ClientSecret string `koanf:"client_secret" validate:"required"`
	Username     string `koanf:"username" validate:"required"`
	Extension    string `koanf:"extension"`
	Password     string `koanf:"password" validate:"required"`

	// RefreshInterval is how often the session token is refreshed. Access
	// tokens live one hour, so the default leaves a 200s margin.
	RefreshInterval time.Duration `koanf:"refresh_interval"`

	// PageDelay is the pause between call-log pages.
	PageDelay time.Duration `koanf:"page_delay"`

	// PerPage is the call-log page size; 0 leaves the provider default.
	PerPage int `koanf:"per_page" validate:"gte=0,lte=1000"`

	Timeout time.Duration `koanf:"timeout"`
}

// CloseConfig holds the CRM connection settings.
type CloseConfig struct {
	BaseURL string `koanf:"base_url" validate:"required,url"`
	APIKey  string `koanf:"api_key" validate:"required"`

	// DevAPIKey authenticates checkpoint reads and writes against the
	// sandbox organization holding the anchor lead. Falls back to APIKey.
	DevAPIKey string `koanf:"dev_api_key"`

	// RequestsPerSecond caps outbound CRM requests.
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"gt=0"`
	Burst             int     `koanf:"burst" validate:"gte=1"`

	Timeout time.Duration `koanf:"timeout"`
}

// CheckpointAPIKey returns the key used for the checkpoint anchor lead.
func (c *CloseConfig) CheckpointAPIKey() string {
	if c.DevAPIKey != "" {
		return c.DevAPIKey
	}
	return c.APIKey
}

// SyncConfig holds sync scheduling settings.
type SyncConfig struct {
	// Interval between cycles. Ignored when Schedule is set.
	Interval time.Duration `koanf:"interval"`

	// IntervalSeconds mirrors the legacy SECONDS variable; when positive it
	// overrides Interval.
	IntervalSeconds int `koanf:"interval_seconds" validate:"gte=0"`

	// Schedule is a cron expression (5 or 6 fields, or a descriptor such as
	// "@every 1m"). Empty means "@every <Interval>".
	Schedule string `koanf:"schedule"`

	// Lookback is the window start used when no checkpoint is available.
	Lookback time.Duration `koanf:"lookback"`

	// Concurrency is the number of call records processed in parallel.
	Concurrency int `koanf:"concurrency" validate:"min=1,max=32"`

	// RunOnStart runs one cycle immediately when the manager starts.
	RunOnStart bool `koanf:"run_on_start"`

	// PostedCacheSize bounds the in-process memo of posted activities.
	// Zero disables the memo.
	PostedCacheSize int           `koanf:"posted_cache_size" validate:"gte=0"`
	PostedCacheTTL  time.Duration `koanf:"posted_cache_ttl"`
}

// EffectiveInterval returns the cycle interval after applying IntervalSeconds.
func (s *SyncConfig) EffectiveInterval() time.Duration {
	if s.IntervalSeconds > 0 {
		return time.Duration(s.IntervalSeconds) * time.Second
	}
	return s.Interval
}

// CheckpointConfig selects and configures the checkpoint backend.
type CheckpointConfig struct {
	Backend string `koanf:"backend" validate:"oneof=close badger redis"`

	// AnchorLeadID is the lead whose custom field stores the checkpoint.
	// Empty disables persistence for the close backend.
	AnchorLeadID string `koanf:"anchor_lead_id"`
	Field        string `koanf:"field" validate:"required"`

	BadgerPath string `koanf:"badger_path"`

	RedisURL string `koanf:"redis_url"`
	RedisKey string `koanf:"redis_key"`
}

// EventsConfig controls publishing of sync events to NATS.
type EventsConfig struct {
	Enabled bool `koanf:"enabled"`

	// Embedded starts an in-process NATS server instead of dialing URL.
	Embedded bool   `koanf:"embedded"`
	URL      string `koanf:"url"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port" validate:"gte=-1,lte=65535"`
	StoreDir string `koanf:"store_dir"`

	// JetStream publishes to a persisted stream instead of core NATS.
	JetStream bool `koanf:"jetstream"`

	TopicPrefix string `koanf:"topic_prefix"`
}

// APIConfig holds the HTTP server settings.
type APIConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`

	// JWTSecret, when set, requires an HS256 bearer token on write routes.
	JWTSecret string `koanf:"jwt_secret"`

	RateLimit       int           `koanf:"rate_limit" validate:"gte=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	CORSOrigins []string `koanf:"cors_origins"`

	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig holds suture restart policy settings.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// Load loads configuration from defaults, an optional YAML file, and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
