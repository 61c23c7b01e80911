// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

// Package audit records incoming webhook deliveries for troubleshooting
// and compliance. Each entry captures the raw payload alongside the
// remote event ID and requested action, and entries are pruned on an
// age-based retention schedule.
package audit

import (
	"context"
	"time"
)

// Entry is a single recorded webhook delivery.
type Entry struct {
	// ID is a unique identifier for this entry.
	ID string `json:"id"`

	// EventID is the numeric remote event identifier, or 0 when the
	// payload carried none (malformed or rejected deliveries).
	EventID int64 `json:"event_id"`

	// Action is the webhook method/type pair that was requested.
	Action string `json:"action"`

	// Payload is the raw request body as received.
	Payload string `json:"payload"`

	// Timestamp when the delivery arrived.
	Timestamp time.Time `json:"date"`
}

// QueryFilter defines filtering options for audit queries.
type QueryFilter struct {
	// EventID filters by remote event ID. Zero matches all.
	EventID int64 `json:"event_id,omitempty"`

	// Action filters by recorded action.
	Action string `json:"action,omitempty"`

	// StartTime is the beginning of the time range.
	StartTime *time.Time `json:"start_time,omitempty"`

	// EndTime is the end of the time range.
	EndTime *time.Time `json:"end_time,omitempty"`

	// Limit is the maximum number of results.
	Limit int `json:"limit,omitempty"`

	// Offset for pagination.
	Offset int `json:"offset,omitempty"`

	// OrderDesc sorts newest-first when true.
	OrderDesc bool `json:"order_desc,omitempty"`
}

// DefaultQueryFilter returns a sensible default filter.
func DefaultQueryFilter() QueryFilter {
	return QueryFilter{
		Limit:     100,
		OrderDesc: true,
	}
}

// Store defines the interface for audit entry persistence.
type Store interface {
	// Save persists an audit entry.
	Save(ctx context.Context, entry *Entry) error

	// Query retrieves entries matching the filter.
	Query(ctx context.Context, filter QueryFilter) ([]Entry, error)

	// Count returns the number of entries matching the filter.
	Count(ctx context.Context, filter QueryFilter) (int64, error)

	// DeleteOlderThan removes entries recorded before the given time
	// and returns how many were removed.
	DeleteOlderThan(ctx context.Context, olderThan time.Time) (int64, error)
}
