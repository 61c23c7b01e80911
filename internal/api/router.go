// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TVWIT/invintus-sync/internal/auth"
	"github.com/TVWIT/invintus-sync/internal/middleware"
)

// Router assembles the HTTP routes around a handler set.
type Router struct {
	handler    *Handler
	jwtManager *auth.JWTManager
}

// NewRouter creates a router for the given handler and token manager.
func NewRouter(handler *Handler, jwtManager *auth.JWTManager) *Router {
	return &Router{
		handler:    handler,
		jwtManager: jwtManager,
	}
}

// Setup builds the chi route tree. The webhook gateway authenticates via
// its payload signature; everything else under /api/v1 requires a JWT.
func (rt *Router) Setup() http.Handler {
	cfg := rt.handler.config

	rateLimit := cfg.Server.RateLimitPerMinute
	if rateLimit <= 0 {
		rateLimit = 300
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", SignatureHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.SecurityHeaders)

	r.Route("/api/v1", func(r chi.Router) {
		// Health probes get a permissive limit so monitors can poll freely.
		r.Route("/health", func(r chi.Router) {
			r.Use(httprate.LimitByIP(1000, time.Minute))
			r.Get("/live", rt.handler.HealthLive)
			r.Get("/ready", rt.handler.HealthReady)
		})

		// Webhook gateway. Signature-authenticated, not JWT.
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(rateLimit, time.Minute))
			r.Use(middleware.Prometheus)
			r.Post("/webhooks/invintus", rt.handler.InvintusWebhook)
		})

		// Management surface.
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(rateLimit, time.Minute))
			r.Use(middleware.Prometheus)
			r.Use(auth.RequireJWT(rt.jwtManager))

			r.Get("/settings", rt.handler.GetSettings)
			r.Put("/settings", rt.handler.PutSetting)
			r.Get("/audit", rt.handler.QueryAudit)
			r.Get("/upstream/preferences", rt.handler.UpstreamPreferences)
			r.Post("/upstream/preferences/purge", rt.handler.UpstreamPurgePreferences)
			r.Get("/upstream/events/{eventID}/live", rt.handler.UpstreamIsLive)
			r.Get("/ws", rt.handler.WebSocket)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
