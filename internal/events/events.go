// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/TVWIT/invintus-sync/internal/models"
	"github.com/TVWIT/invintus-sync/internal/reconcile"
)

// TopicRecords carries record mutation events produced by the reconcile
// engine. Subscribers receive one message per persisted mutation.
const TopicRecords = "invintus.records"

// RecordEvent describes a single record mutation. Delete events carry the
// record as it was before removal.
type RecordEvent struct {
	EventID       string              `json:"event_id"`
	Op            reconcile.Op        `json:"op"`
	RemoteEventID string              `json:"remote_event_id"`
	Record        *models.LocalRecord `json:"record,omitempty"`
	Timestamp     time.Time           `json:"timestamp"`
}

// NewRecordEvent builds an event with a unique ID and UTC timestamp.
func NewRecordEvent(op reconcile.Op, record *models.LocalRecord) *RecordEvent {
	ev := &RecordEvent{
		EventID:   uuid.New().String(),
		Op:        op,
		Timestamp: time.Now().UTC(),
	}
	if record != nil {
		ev.RemoteEventID = record.RemoteEventID
		ev.Record = record
	}
	return ev
}

// SerializeEvent encodes an event for transport.
func SerializeEvent(ev *RecordEvent) ([]byte, error) {
	if ev == nil {
		return nil, fmt.Errorf("cannot serialize nil event")
	}
	return json.Marshal(ev)
}

// DeserializeEvent decodes an event from transport bytes.
func DeserializeEvent(data []byte) (*RecordEvent, error) {
	var ev RecordEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("deserialize record event: %w", err)
	}
	return &ev, nil
}
