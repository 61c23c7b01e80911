// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/TVWIT/invintus-sync/internal/events"
	"github.com/TVWIT/invintus-sync/internal/logging"
	"github.com/TVWIT/invintus-sync/internal/reconcile"
)

// Message types pushed to connected clients.
const (
	MessageTypeRecordCreated = "record_created"
	MessageTypeRecordUpdated = "record_updated"
	MessageTypeRecordDeleted = "record_deleted"
	MessageTypePing          = "ping"
	MessageTypePong          = "pong"
)

// Message is the envelope for all WebSocket traffic.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a hub with a buffered broadcast channel.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext runs the hub until ctx is canceled, then closes all
// clients and returns ctx.Err(). Lifecycle events are drained before
// broadcasts so client state is consistent when messages go out.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

func (h *Hub) shutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	// Context cancellation is the expected shutdown path, so no error field.
	logging.Info().
		Str("component", "websocket-hub").
		AnErr("cause", ctx.Err()).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

// broadcastToClients delivers a message to all clients in client-ID order.
// Clients whose send buffer is full are dropped.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// BroadcastRecordEvent pushes a record mutation to all clients. Noop
// operations are not broadcast.
func (h *Hub) BroadcastRecordEvent(ev *events.RecordEvent) {
	if ev == nil {
		return
	}

	var messageType string
	switch ev.Op {
	case reconcile.OpInsert:
		messageType = MessageTypeRecordCreated
	case reconcile.OpUpdate:
		messageType = MessageTypeRecordUpdated
	case reconcile.OpDelete:
		messageType = MessageTypeRecordDeleted
	default:
		return
	}

	h.BroadcastJSON(messageType, ev)
}

// BroadcastJSON sends an arbitrary payload to all connected clients.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	message := Message{
		Type: messageType,
		Data: data,
	}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
