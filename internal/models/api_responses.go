// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package models

import "time"

// APIResponse is the envelope returned by every endpoint.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is a structured error with a stable machine-readable code and a
// human-readable message.
//
// Codes used by the ingestion surface:
//   - MALFORMED_PAYLOAD: unparseable or missing required input
//   - INVALID_METHOD, INVALID_ACTION: unsupported action vocabulary
//   - FORBIDDEN: capability check failed
//   - NOT_FOUND: delete target absent
//   - UPSTREAM_VALIDATION_ERROR: caller pre-flagged the payload
//   - VALIDATION_ERROR: request shape validation failed
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
