// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

/*
Package api provides the HTTP surface of Callbridge.

Routes:

	GET  /api/v1/health/live    200 while the process is up
	GET  /api/v1/health/ready   200 when the sync manager runs and a
	                            RingCentral session exists, else 503
	GET  /api/v1/sync/status    orchestrator state and the last CycleResult
	POST /api/v1/sync/trigger   starts one cycle; 202, or 409 while a
	                            cycle is running
	GET  /metrics               Prometheus exposition

Every JSON response uses the models.APIResponse envelope.

The trigger route requires an HS256 bearer token when api.jwt_secret is
set, and all /api/v1 routes are rate limited per client IP with httprate.
CORS is enabled only when api.cors_origins lists origins.
*/
package api
