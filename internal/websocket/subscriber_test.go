// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/TVWIT/invintus-sync/internal/events"
	"github.com/TVWIT/invintus-sync/internal/models"
	"github.com/TVWIT/invintus-sync/internal/reconcile"
)

func TestSubscriberFutureVisibility(t *testing.T) {
	futureEv := events.NewRecordEvent(reconcile.OpInsert, &models.LocalRecord{
		ID:            "rec-1",
		RemoteEventID: "42",
		State:         models.StateFuture,
	})
	publishEv := events.NewRecordEvent(reconcile.OpUpdate, &models.LocalRecord{
		ID:            "rec-1",
		RemoteEventID: "42",
		State:         models.StatePublish,
	})
	deleteEv := events.NewRecordEvent(reconcile.OpDelete, nil)
	deleteEv.RemoteEventID = "42"

	tests := []struct {
		name         string
		publicFuture bool
		ev           *events.RecordEvent
		want         bool
	}{
		{"future hidden by default", false, futureEv, false},
		{"future visible when enabled", true, futureEv, true},
		{"publish always visible", false, publishEv, true},
		{"delete always visible", false, deleteEv, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := NewSubscriber(NewHub(), nil, WithPublicFutureEvents(tt.publicFuture))
			if got := sub.visible(tt.ev); got != tt.want {
				t.Errorf("visible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubscriberBridgesBusToHub(t *testing.T) {
	bus := events.NewBus(events.BusConfig{BufferSize: 16}, nil)
	defer func() { _ = bus.Close() }()

	hub := NewHub()
	client := newRegisteredClient(hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := NewSubscriber(hub, bus)
	done := make(chan error, 1)
	go func() { done <- sub.Serve(ctx) }()

	// Give the subscriber time to attach before publishing.
	time.Sleep(50 * time.Millisecond)

	ev := recordEvent(reconcile.OpInsert, "42")
	if err := bus.PublishRecordEvent(ctx, ev); err != nil {
		t.Fatalf("PublishRecordEvent() error = %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-hub.broadcast:
			hub.broadcastToClients(msg)
		case got := <-client.send:
			if got.Type != MessageTypeRecordCreated {
				t.Errorf("message type = %q, want %q", got.Type, MessageTypeRecordCreated)
			}
			cancel()
			select {
			case err := <-done:
				if err != context.Canceled {
					t.Errorf("Serve() = %v, want context.Canceled", err)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("subscriber did not stop after cancel")
			}
			return
		case <-deadline:
			t.Fatal("timed out waiting for broadcast")
		}
	}
}

func TestSubscriberStopsWhenBusCloses(t *testing.T) {
	bus := events.NewBus(events.BusConfig{}, nil)
	hub := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := NewSubscriber(hub, bus)
	done := make(chan error, 1)
	go func() { done <- sub.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	if err := bus.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() after bus close = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop after bus close")
	}
}
