// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

// Package main is the callbridge server.
//
// Callbridge copies RingCentral call-log entries into Close as call
// activities on the matching lead, creating the lead when no contact has the
// remote number. Each cycle covers the window from the stored checkpoint to
// now and then advances the checkpoint.
//
// # Application Architecture
//
//	RootSupervisor ("callbridge")
//	├── DataSupervisor ("data-layer")
//	│   └── Event bus (optional, EVENTS_ENABLED)
//	├── SyncSupervisor ("sync-layer")
//	│   ├── Session refresher
//	│   └── Sync manager
//	└── APISupervisor ("api-layer")
//	    └── HTTP server (optional, API_ENABLED)
//
// Startup order:
//
//  1. Configuration: koanf v2 (defaults, YAML file, environment)
//  2. Logging: zerolog
//  3. RingCentral login (fatal on failure)
//  4. Checkpoint store: Close anchor lead, Badger, or Redis
//  5. Sync manager and session refresher
//  6. Event bus (embedded or external NATS, optional JetStream)
//  7. HTTP API: chi router, health, status, trigger, /metrics
//  8. Supervisor tree until SIGINT or SIGTERM
//
// # Configuration
//
// The deployment variables:
//
//	RINGCENTRAL_SERVER=https://platform.ringcentral.com
//	RINGCENTRAL_CLIENT_ID=...
//	RINGCENTRAL_CLIENT_SECRET=...
//	RINGCENTRAL_USERNAME=+15550000000
//	RINGCENTRAL_EXTENSION=101
//	RINGCENTRAL_PASSWORD=...
//	CLOSE_API_KEY=...
//	CLOSE_DEV_API_KEY=...       # key for the checkpoint anchor lead
//	MASTER_LEAD_ID=lead_...     # anchor lead; empty disables the checkpoint
//	SECONDS=60                  # cycle interval
//
// Optional:
//
//	SYNC_SCHEDULE="*/5 * * * *" # cron expression, overrides SECONDS
//	SYNC_CONCURRENCY=4
//	CHECKPOINT_BACKEND=close    # close, badger, or redis
//	EVENTS_ENABLED=true
//	EVENTS_EMBEDDED=true
//	EVENTS_JETSTREAM=true
//	HTTP_ADDR=:8080
//	JWT_SECRET=...              # protects POST /api/v1/sync/trigger
//	LOG_LEVEL=info
//	LOG_FORMAT=json
//
// A YAML file at CONFIG_PATH (or ./config.yaml) sets the same keys.
//
// # Flags
//
//	-issue-token <subject>   print an API token signed with JWT_SECRET and exit
//	-token-ttl <duration>    lifetime of the issued token (default 720h)
//
// # Shutdown
//
// On SIGINT or SIGTERM the tree cancels every service. An in-flight cycle
// stops at its next request and does not advance the checkpoint. The
// checkpoint store is closed after the tree stops.
package main
