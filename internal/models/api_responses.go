// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package models

import (
	"time"
)

// APIResponse is the envelope for every HTTP API response.
//
//	{
//	  "status": "success",
//	  "data": {"state": "idle", "last_sync": "2026-01-02T03:04:05Z"},
//	  "metadata": {"timestamp": "2026-01-02T03:04:06Z"}
//	}
//
// Status is "success" or "error"; Error is set only for errors.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError is the structured error body of an error response.
// Code is machine readable (e.g. "SYNC_IN_PROGRESS", "UNAUTHORIZED").
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
