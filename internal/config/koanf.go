// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/callbridge/config.yaml",
	"/etc/callbridge/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		RingCentral: RingCentralConfig{
			ServerURL:       "https://platform.ringcentral.com",
			RefreshInterval: 3400 * time.Second,
			PageDelay:       6 * time.Second,
			PerPage:         100,
			Timeout:         30 * time.Second,
		},
		Close: CloseConfig{
			BaseURL:           "https://api.close.com/api/v1/",
			RequestsPerSecond: 10,
			Burst:             5,
			Timeout:           30 * time.Second,
		},
		Sync: SyncConfig{
			Interval:        time.Minute,
			Lookback:        300 * time.Second,
			Concurrency:     1,
			RunOnStart:      true,
			PostedCacheSize: 10000,
			PostedCacheTTL:  24 * time.Hour,
		},
		Checkpoint: CheckpointConfig{
			Backend:    CheckpointBackendClose,
			Field:      "last_ringcentral_sync_time",
			BadgerPath: "/data/checkpoint",
			RedisURL:   "redis://127.0.0.1:6379/0",
			RedisKey:   "callbridge:last_ringcentral_sync_time",
		},
		Events: EventsConfig{
			Enabled:     false,
			Embedded:    false,
			URL:         "nats://127.0.0.1:4222",
			Host:        "127.0.0.1",
			Port:        4222,
			StoreDir:    "/data/nats",
			JetStream:   false,
			TopicPrefix: "callbridge",
		},
		API: APIConfig{
			Enabled:         true,
			Addr:            ":8080",
			RateLimit:       10,
			RateLimitWindow: time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration in three layers, later layers winning:
//
//  1. Defaults from defaultConfig
//  2. Optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment variables listed in envMappings
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to config paths.
// The unprefixed names are the ones the service has always been deployed with.
var envMappings = map[string]string{
	// RingCentral
	"ringcentral_server":           "ringcentral.server_url",
	"ringcentral_client_id":        "ringcentral.client_id",
	"ringcentral_client_secret":    "ringcentral.client_secret",
	"ringcentral_username":         "ringcentral.username",
	"ringcentral_extension":        "ringcentral.extension",
	"ringcentral_password":         "ringcentral.password",
	"ringcentral_refresh_interval": "ringcentral.refresh_interval",
	"ringcentral_page_delay":       "ringcentral.page_delay",
	"ringcentral_per_page":         "ringcentral.per_page",
	"ringcentral_timeout":          "ringcentral.timeout",

	// Close
	"close_base_url":            "close.base_url",
	"close_api_key":             "close.api_key",
	"close_dev_api_key":         "close.dev_api_key",
	"close_requests_per_second": "close.requests_per_second",
	"close_burst":               "close.burst",
	"close_timeout":             "close.timeout",

	// Sync
	"seconds":                "sync.interval_seconds",
	"sync_interval_seconds":  "sync.interval_seconds",
	"sync_interval":          "sync.interval",
	"sync_schedule":          "sync.schedule",
	"sync_lookback":          "sync.lookback",
	"sync_concurrency":       "sync.concurrency",
	"sync_run_on_start":      "sync.run_on_start",
	"sync_posted_cache_size": "sync.posted_cache_size",
	"sync_posted_cache_ttl":  "sync.posted_cache_ttl",

	// Checkpoint
	"master_lead_id":         "checkpoint.anchor_lead_id",
	"checkpoint_backend":     "checkpoint.backend",
	"checkpoint_field":       "checkpoint.field",
	"checkpoint_badger_path": "checkpoint.badger_path",
	"checkpoint_redis_url":   "checkpoint.redis_url",
	"checkpoint_redis_key":   "checkpoint.redis_key",

	// Events
	"events_enabled":      "events.enabled",
	"events_embedded":     "events.embedded",
	"nats_url":            "events.url",
	"nats_host":           "events.host",
	"nats_port":           "events.port",
	"nats_store_dir":      "events.store_dir",
	"events_jetstream":    "events.jetstream",
	"events_topic_prefix": "events.topic_prefix",

	// HTTP API
	"api_enabled":           "api.enabled",
	"http_addr":             "api.addr",
	"jwt_secret":            "api.jwt_secret",
	"rate_limit_requests":   "api.rate_limit",
	"rate_limit_window":     "api.rate_limit_window",
	"cors_origins":          "api.cors_origins",
	"http_shutdown_timeout": "api.shutdown_timeout",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc maps an environment variable name to its config path.
// Unmapped variables return "" and are ignored.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
