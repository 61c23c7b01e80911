// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

// Package main is the entry point for the Invintus Sync server.
//
// Invintus Sync mirrors event lifecycles from the Invintus video platform
// into a local content store. The Invintus platform pushes webhooks on
// every event mutation; the reconcile engine normalizes each payload and
// keeps the local record, category taxonomy, and audit trail in sync.
//
// # Startup order
//
//  1. Configuration: layered Koanf v2 (defaults, config.yaml, INVSYNC_* env)
//  2. Logging: zerolog, console or JSON format
//  3. Database: embedded DuckDB (records, categories, settings, audit log)
//  4. Authorization: Casbin capability policy
//  5. Reconcile engine, event bus, websocket hub
//  6. Supervisor tree: messaging layer (hub, event bridge) + API layer
//
// # Configuration
//
// Highest priority wins:
//   - INVSYNC_* environment variables (INVSYNC_SERVER_PORT, ...)
//   - config.yaml in the working directory or /etc/invintus-sync
//   - built-in defaults
//
// The webhook signature secret (INVSYNC_WEBHOOK_SECRET) should always be
// set in production; without it any caller can submit payloads.
//
// # Signal handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests, the websocket hub closes its clients, and the
// database is closed last.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/TVWIT/invintus-sync/internal/api"
	"github.com/TVWIT/invintus-sync/internal/audit"
	"github.com/TVWIT/invintus-sync/internal/auth"
	"github.com/TVWIT/invintus-sync/internal/authz"
	"github.com/TVWIT/invintus-sync/internal/category"
	"github.com/TVWIT/invintus-sync/internal/config"
	"github.com/TVWIT/invintus-sync/internal/database"
	"github.com/TVWIT/invintus-sync/internal/events"
	"github.com/TVWIT/invintus-sync/internal/invintus"
	"github.com/TVWIT/invintus-sync/internal/logging"
	"github.com/TVWIT/invintus-sync/internal/normalize"
	"github.com/TVWIT/invintus-sync/internal/reconcile"
	"github.com/TVWIT/invintus-sync/internal/supervisor"
	"github.com/TVWIT/invintus-sync/internal/supervisor/services"
	ws "github.com/TVWIT/invintus-sync/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Int("port", cfg.Server.Port).
		Bool("signature_check", cfg.Webhook.Secret != "").
		Msg("Starting Invintus Sync")

	if cfg.Webhook.Secret == "" {
		logging.Warn().Msg("No webhook secret configured - payload signatures will not be verified")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	// Audit trail shares the DuckDB handle with the content store.
	auditStore := audit.NewDuckDBStore(db.Conn())
	if err := auditStore.CreateTable(context.Background()); err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize audit schema")
	}
	auditLogger := audit.NewLogger(auditStore, db, audit.Config{
		LogPayloads:   cfg.Webhook.LogPayloads,
		RetentionDays: cfg.Webhook.LogRetentionDays,
	})

	enforcer, err := authz.NewEnforcer(authz.DefaultConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization")
	}
	defer enforcer.Close()

	mapper := normalize.NewStatusMapper(
		cfg.Webhook.LiveStatuses,
		cfg.Webhook.FutureStatuses,
		cfg.Webhook.PublishStatuses,
	)
	normalizer := normalize.NewNormalizer(mapper, nil)
	engine := reconcile.NewEngine(db, normalizer, category.NewResolver(db), enforcer)

	// Reconcile results fan out to websocket clients via the event bus.
	bus := events.NewBus(events.BusConfig{}, events.NewLoggerAdapter())
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()
	engine.OnAfterSave(bus.AfterSaveHook())

	wsHub := ws.NewHub()

	upstream := invintus.NewClient(&cfg.Invintus)
	defer upstream.Close()

	jwtManager, err := auth.NewJWTManager(cfg.Auth.JWTSecret, 0)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	handler := api.NewHandler(cfg, db, engine, auditLogger, upstream, enforcer, wsHub)
	router := api.NewRouter(handler, jwtManager).Setup()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	tree.AddMessagingService(ws.NewSubscriber(wsHub, bus,
		ws.WithPublicFutureEvents(cfg.Webhook.PublicFutureEvents)))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Stopped gracefully")
}
