// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

/*
Package config loads and validates Callbridge configuration.

# Configuration Sources

Configuration is layered with Koanf v2, highest priority last:
  - Built-in defaults (defaultConfig)
  - YAML file at CONFIG_PATH, ./config.yaml, or /etc/callbridge/config.yaml
  - Environment variables

# Environment Variables

RingCentral:
  - RINGCENTRAL_SERVER: API base URL (default: https://platform.ringcentral.com)
  - RINGCENTRAL_CLIENT_ID, RINGCENTRAL_CLIENT_SECRET: app credentials (required)
  - RINGCENTRAL_USERNAME, RINGCENTRAL_PASSWORD: login (required)
  - RINGCENTRAL_EXTENSION: login extension (optional)
  - RINGCENTRAL_REFRESH_INTERVAL: token refresh period (default: 3400s)
  - RINGCENTRAL_PAGE_DELAY: pause between call-log pages (default: 6s)

Close:
  - CLOSE_API_KEY: API key for leads and activities (required)
  - CLOSE_DEV_API_KEY: API key for the sandbox holding the checkpoint lead
  - CLOSE_REQUESTS_PER_SECOND: client-side rate limit (default: 10)

Sync:
  - SECONDS: cycle interval in seconds (overrides SYNC_INTERVAL)
  - SYNC_INTERVAL: cycle interval as a duration (default: 1m)
  - SYNC_SCHEDULE: cron expression, replaces the interval when set
  - SYNC_LOOKBACK: window start when no checkpoint exists (default: 300s)
  - SYNC_CONCURRENCY: call records processed in parallel (default: 1)

Checkpoint:
  - CHECKPOINT_BACKEND: close, badger, or redis (default: close)
  - MASTER_LEAD_ID: anchor lead for the close backend; unset disables persistence
  - CHECKPOINT_BADGER_PATH, CHECKPOINT_REDIS_URL, CHECKPOINT_REDIS_KEY

Events:
  - EVENTS_ENABLED: publish sync events to NATS (default: false)
  - EVENTS_EMBEDDED: run an in-process NATS server (default: false)
  - NATS_URL, NATS_HOST, NATS_PORT, NATS_STORE_DIR, EVENTS_JETSTREAM

HTTP API:
  - HTTP_ADDR: listen address (default: :8080)
  - JWT_SECRET: enables bearer auth on POST /api/v1/sync/trigger (32+ chars)
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, CORS_ORIGINS

Logging:
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json, console (default: json)
  - LOG_CALLER: include caller file:line (default: false)
*/
package config
