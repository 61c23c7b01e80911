// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/TVWIT/invintus-sync/internal/config"
	"github.com/TVWIT/invintus-sync/internal/database"
)

func newDuckDBStore(t *testing.T) *DuckDBStore {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{Path: "", MaxMemory: "256MB"})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := NewDuckDBStore(db.Conn())
	if err := store.CreateTable(context.Background()); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	return store
}

func TestDuckDBStoreRoundTrip(t *testing.T) {
	store := newDuckDBStore(t)
	ctx := context.Background()

	entry := &Entry{
		ID:        "entry-1",
		EventID:   42,
		Action:    "events_add",
		Payload:   `{"action":{"method":"events","type":"add"}}`,
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := store.Save(ctx, entry); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	entries, err := store.Query(ctx, QueryFilter{EventID: 42})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if got.ID != "entry-1" || got.EventID != 42 || got.Action != "events_add" {
		t.Errorf("unexpected entry: %+v", got)
	}
	if got.Payload != entry.Payload {
		t.Errorf("payload not round-tripped: %q", got.Payload)
	}
}

func TestDuckDBStoreSaveNilEntry(t *testing.T) {
	store := newDuckDBStore(t)
	if err := store.Save(context.Background(), nil); err == nil {
		t.Error("expected error for nil entry")
	}
}

func TestDuckDBStoreDeleteOlderThan(t *testing.T) {
	store := newDuckDBStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	entries := []*Entry{
		{ID: "e1", EventID: 1, Action: "events_add", Payload: "{}", Timestamp: now.AddDate(0, 0, -30)},
		{ID: "e2", EventID: 2, Action: "events_add", Payload: "{}", Timestamp: now.AddDate(0, 0, -10)},
		{ID: "e3", EventID: 3, Action: "events_add", Payload: "{}", Timestamp: now},
	}
	for _, e := range entries {
		if err := store.Save(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := store.DeleteOlderThan(ctx, now.AddDate(0, 0, -14))
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	count, err := store.Count(ctx, QueryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("remaining count = %d, want 2", count)
	}
}

func TestDuckDBStoreOrderingAndPaging(t *testing.T) {
	store := newDuckDBStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"first", "second", "third"} {
		entry := &Entry{
			ID: id, EventID: int64(i + 1), Action: "events_add", Payload: "{}",
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		}
		if err := store.Save(ctx, entry); err != nil {
			t.Fatal(err)
		}
	}

	newest, err := store.Query(ctx, QueryFilter{Limit: 1, OrderDesc: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(newest) != 1 || newest[0].ID != "third" {
		t.Errorf("descending query returned %+v", newest)
	}

	paged, err := store.Query(ctx, QueryFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(paged) != 1 || paged[0].ID != "second" {
		t.Errorf("paged query returned %+v", paged)
	}
}
