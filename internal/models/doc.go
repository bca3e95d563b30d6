// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

/*
Package models defines the data structures shared across Callbridge.

Model Categories:

1. RingCentral call log (ringcentral.go):
  - CallRecord: one "Detailed" view call-log entry
  - CallParty: a from/to endpoint
  - CallLeg: a sub-segment of a multi-party call
  - CallLogPage: one page of the call-log endpoint with navigation

2. Close CRM (close.go):
  - LeadPage: one page of a lead search
  - CallActivity: an existing call activity as returned for dedup
  - ActivityPayload: the call activity Callbridge writes

3. Sync bookkeeping (sync.go):
  - SyncWindow: the half-open interval covered by one cycle
  - CycleResult: per-cycle tally reported by the sync manager

4. HTTP API (api_responses.go):
  - APIResponse, Metadata, APIError
*/
package models
