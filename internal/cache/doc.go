// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

// Package cache holds the in-process memo of activities this process has
// already posted.
//
// Cycle windows are contiguous, but a cycle that fails before writing its
// checkpoint is retried over the same window. The sync manager checks the
// memo before asking Close whether a lead already has a call, which saves
// one activity query per (lead, call) pair it posted itself. A miss always
// falls through to the Close query, so the memo never changes what is
// posted, only how many requests it takes.
//
//	posted := cache.NewLRUCache(10000, 24*time.Hour)
//	if posted.Contains(cache.ActivityKey(leadID, callID)) {
//	    // already posted by this process
//	}
package cache
