// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package models

import "time"

// LifecycleState is the local record's visibility/workflow status.
type LifecycleState string

const (
	StateDraft   LifecycleState = "draft"
	StateFuture  LifecycleState = "future"
	StateLive    LifecycleState = "live"
	StatePublish LifecycleState = "publish"
	StatePrivate LifecycleState = "private"
)

// Valid reports whether s is one of the defined lifecycle states.
func (s LifecycleState) Valid() bool {
	switch s {
	case StateDraft, StateFuture, StateLive, StatePublish, StatePrivate:
		return true
	}
	return false
}

// LocalRecord is the canonical content entity mirroring one remote event.
// It is owned exclusively by the reconciliation engine; no other component
// mutates it directly.
type LocalRecord struct {
	// ID is the local store identity; empty until the record is inserted.
	ID string `json:"id"`

	// RemoteEventID is the extracted numeric event ID and the unique
	// correlation key for upserts and deletes.
	RemoteEventID string `json:"remote_event_id"`

	Title string `json:"title"`

	// Slug is slugify(title) + "-" + RemoteEventID, unique by
	// construction.
	Slug string `json:"slug"`

	// Body is normalized HTML with the player-embed marker prepended.
	Body string `json:"body"`

	PublishedAt time.Time      `json:"published_at"`
	State       LifecycleState `json:"state"`

	// Custom fields carried verbatim from the remote event.
	CustomID     string `json:"custom_id"`
	Description  string `json:"description"`
	Caption      string `json:"caption"`
	Thumbnail    string `json:"thumbnail"`
	Audio        string `json:"audio"`
	Location     string `json:"location"`
	TotalRuntime string `json:"total_runtime"`

	Tags []string `json:"tags"`

	// CategoryIDs are local taxonomy node IDs resolved by the category
	// reconciler.
	CategoryIDs []string `json:"category_ids"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryNode is one node of the local hierarchical taxonomy.
// A node is created on first sighting of a remote category ID, updated on
// every subsequent sighting, and never deleted by this service.
type CategoryNode struct {
	ID               string  `json:"id"`
	RemoteCategoryID int64   `json:"remote_category_id"`
	Name             string  `json:"name"`
	Slug             string  `json:"slug"`
	Description      string  `json:"description"`
	ParentID         *string `json:"parent_id,omitempty"`
}

// DeletionResult reports the outcome of deleting a single matched record.
type DeletionResult struct {
	ID            string `json:"id"`
	RemoteEventID string `json:"remote_event_id"`
	Deleted       bool   `json:"deleted"`
}
