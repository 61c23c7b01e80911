// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

// Package api exposes the HTTP surface: the Invintus webhook gateway,
// management endpoints for settings, the audit trail, upstream
// passthroughs, health probes, and the realtime websocket.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/TVWIT/invintus-sync/internal/audit"
	"github.com/TVWIT/invintus-sync/internal/authz"
	"github.com/TVWIT/invintus-sync/internal/config"
	"github.com/TVWIT/invintus-sync/internal/database"
	"github.com/TVWIT/invintus-sync/internal/invintus"
	"github.com/TVWIT/invintus-sync/internal/logging"
	"github.com/TVWIT/invintus-sync/internal/reconcile"
	ws "github.com/TVWIT/invintus-sync/internal/websocket"
)

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	config    *config.Config
	db        *database.DB
	engine    *reconcile.Engine
	audit     *audit.Logger
	upstream  *invintus.Client
	enforcer  *authz.Enforcer
	wsHub     *ws.Hub
	startTime time.Time
}

// NewHandler creates a handler with all dependencies wired.
func NewHandler(cfg *config.Config, db *database.DB, engine *reconcile.Engine, auditLogger *audit.Logger, upstream *invintus.Client, enforcer *authz.Enforcer, wsHub *ws.Hub) *Handler {
	return &Handler{
		config:    cfg,
		db:        db,
		engine:    engine,
		audit:     auditLogger,
		upstream:  upstream,
		enforcer:  enforcer,
		wsHub:     wsHub,
		startTime: time.Now(),
	}
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout against slow clients.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates connection origins against the
// configured CORS allowlist. Browser clients always send Origin; an
// empty header is rejected outright.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("websocket connection rejected: missing Origin header")
		return false
	}

	if h.config == nil {
		return true
	}

	for _, allowed := range h.config.Server.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("websocket connection rejected from unauthorized origin")
	return false
}

// WebSocket upgrades the connection and registers the client with the hub.
// GET /api/v1/ws
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "WebSocket service unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("websocket upgrade error")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()
}
