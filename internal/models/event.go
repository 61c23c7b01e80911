// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

// Package models defines the wire and storage types shared across
// Invintus Sync: inbound webhook payloads, the local content record and
// taxonomy node, and the common API response envelope.
package models

import "strings"

// RemoteEvent is the untrusted event payload delivered by the Invintus
// platform. Every field is optional on the wire; consumers must tolerate
// zero values.
type RemoteEvent struct {
	// EventID is a composite string of the form "prefix_numericID".
	// The true numeric ID is always the final underscore-delimited
	// segment; use NumericID to extract it.
	EventID    string `json:"eventID"`
	CustomID   string `json:"customID"`
	Title      string `json:"title"`
	Description string `json:"description"`

	// StartDateTime is the scheduled start, typically
	// "2006-01-02 15:04:05" or RFC3339. Unparseable values are treated
	// as "not in the future" by the normalizer, never as an error.
	StartDateTime string `json:"startDateTime"`

	Caption      string `json:"caption"`
	Thumbnail    string `json:"thumbnail"`
	AudioURL     string `json:"audio"`
	LocationName string `json:"locationName"`
	TotalRunTime string `json:"totalRunTime"`

	// EventStatus is free text; the status mapper classifies it.
	EventStatus string `json:"eventStatus"`

	// Private events are never retained locally, regardless of status.
	Private bool `json:"private"`

	Keywords        []string         `json:"keywords"`
	CategoryXtended []RemoteCategory `json:"categoryXtended"`
}

// NumericID returns the trailing underscore-delimited segment of EventID.
// "abc_def_42" yields "42"; an EventID without underscores is returned
// whole.
func (e *RemoteEvent) NumericID() string {
	if idx := strings.LastIndex(e.EventID, "_"); idx >= 0 {
		return e.EventID[idx+1:]
	}
	return e.EventID
}

// RemoteCategory describes one node of the remote category taxonomy.
type RemoteCategory struct {
	CategoryID          int64  `json:"categoryID"`
	CategoryName        string `json:"categoryName"`
	CategoryDescription string `json:"categoryDescription"`

	// ChildOf is the remote ID of the parent category; zero means
	// top-level. The remote system orders batches parent-first, so a
	// referenced parent is either earlier in the same batch or already
	// persisted.
	ChildOf int64 `json:"childOf,omitempty"`
}

// WebhookAction identifies the operation requested by a webhook delivery.
type WebhookAction struct {
	// Method must be "events"; anything else is rejected.
	Method string `json:"method"`

	// Type is one of add, update, new, stop (upsert) or delete.
	Type string `json:"type"`
}

// WebhookErrors carries a validation failure flagged by the caller before
// the payload reached this service.
type WebhookErrors struct {
	HasError bool   `json:"hasError"`
	Message  string `json:"message"`
}

// WebhookRequest is the full inbound webhook body.
type WebhookRequest struct {
	Action WebhookAction  `json:"action"`
	Data   *RemoteEvent   `json:"data"`
	Errors *WebhookErrors `json:"errors,omitempty"`
}
