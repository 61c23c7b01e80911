// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package services

import (
	"context"
)

// ContextHub matches *websocket.Hub's RunWithContext method without
// importing the websocket package.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// WebSocketHubService wraps the websocket hub as a supervised service.
type WebSocketHubService struct {
	hub  ContextHub
	name string
}

// NewWebSocketHubService creates a hub service wrapper.
func NewWebSocketHubService(hub ContextHub) *WebSocketHubService {
	return &WebSocketHubService{
		hub:  hub,
		name: "websocket-hub",
	}
}

// Serve implements suture.Service by delegating to the hub's run loop.
func (w *WebSocketHubService) Serve(ctx context.Context) error {
	return w.hub.RunWithContext(ctx)
}

// String identifies the service in supervisor logs.
func (w *WebSocketHubService) String() string {
	return w.name
}
