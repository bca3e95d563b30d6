// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package config

import (
	"fmt"
	"strings"

	"github.com/tomtom215/callbridge/internal/validation"
)

const minJWTSecretLength = 32

// Validate checks that required configuration is present and consistent.
// Struct tags are checked first, then cross-field rules.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	validators := []func() error{
		c.validateRingCentral,
		c.validateClose,
		c.validateSync,
		c.validateCheckpoint,
		c.validateEvents,
		c.validateAPI,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateRingCentral() error {
	if c.RingCentral.RefreshInterval <= 0 {
		return fmt.Errorf("RINGCENTRAL_REFRESH_INTERVAL must be positive")
	}
	if c.RingCentral.PageDelay < 0 {
		return fmt.Errorf("RINGCENTRAL_PAGE_DELAY must not be negative")
	}
	if c.RingCentral.Timeout <= 0 {
		return fmt.Errorf("RINGCENTRAL_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateClose() error {
	if !strings.HasSuffix(c.Close.BaseURL, "/") {
		return fmt.Errorf("CLOSE_BASE_URL must end with '/' (got %q)", c.Close.BaseURL)
	}
	if c.Close.Timeout <= 0 {
		return fmt.Errorf("CLOSE_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.Schedule == "" && c.Sync.EffectiveInterval() <= 0 {
		return fmt.Errorf("SECONDS or SYNC_INTERVAL must be positive when SYNC_SCHEDULE is not set")
	}
	if c.Sync.Lookback <= 0 {
		return fmt.Errorf("SYNC_LOOKBACK must be positive")
	}
	return nil
}

func (c *Config) validateCheckpoint() error {
	switch c.Checkpoint.Backend {
	case CheckpointBackendBadger:
		if c.Checkpoint.BadgerPath == "" {
			return fmt.Errorf("CHECKPOINT_BADGER_PATH is required when CHECKPOINT_BACKEND=badger")
		}
	case CheckpointBackendRedis:
		if c.Checkpoint.RedisURL == "" {
			return fmt.Errorf("CHECKPOINT_REDIS_URL is required when CHECKPOINT_BACKEND=redis")
		}
		if c.Checkpoint.RedisKey == "" {
			return fmt.Errorf("CHECKPOINT_REDIS_KEY is required when CHECKPOINT_BACKEND=redis")
		}
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}
	if c.Events.Embedded {
		if c.Events.JetStream && c.Events.StoreDir == "" {
			return fmt.Errorf("NATS_STORE_DIR is required for an embedded JetStream server")
		}
		return nil
	}
	if c.Events.URL == "" {
		return fmt.Errorf("NATS_URL is required when EVENTS_ENABLED=true and EVENTS_EMBEDDED=false")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if !c.API.Enabled {
		return nil
	}
	if c.API.Addr == "" {
		return fmt.Errorf("HTTP_ADDR is required when API_ENABLED=true")
	}
	if c.API.JWTSecret != "" && len(c.API.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if c.API.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}
