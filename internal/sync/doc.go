// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

/*
Package sync is the incremental RingCentral to Close sync engine.

Each cycle reads a checkpoint, fetches the voice calls started since then,
resolves every call's remote phone number to one or more Close leads
(creating a lead when none match), skips calls already logged on a lead,
and posts the rest as call activities. The checkpoint then advances to the
cycle start time.

Key Components:

  - Manager: schedules cycles with robfig/cron and guards against overlap
  - CallFetcher: paginates the call log with a pause between pages
  - LeadResolver: phone number to lead ids, with create-on-miss
  - DedupChecker: substring match of the call id in existing notes
  - posted memo: LRU of lead|call keys posted by this process, consulted
    before the activity query
  - CheckpointStore: close (lead custom field), badger or redis backends
  - Refresher: periodic RingCentral token refresh with backoff
  - Formatter: BuildNote, BuildPayload and PrettyDuration

Failure Handling:

Nothing aborts a cycle. Fetch errors return the pages already read, lead
resolution and post failures are counted in the CycleResult, dedup query
failures count as "not logged", and checkpoint failures fall back to
now minus the configured lookback.

Thread Safety:

  - syncMu: one cycle at a time, shared by the scheduler and TriggerSync
  - mu: protects state, last result and the running flag
  - The RingCentral client's session lock serializes token refresh
    against in-flight page requests
*/
package sync
