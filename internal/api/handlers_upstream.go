// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/TVWIT/invintus-sync/internal/models"
)

// UpstreamPreferences proxies the cached Invintus player preferences.
// GET /api/v1/upstream/preferences
func (h *Handler) UpstreamPreferences(w http.ResponseWriter, r *http.Request) {
	if !h.requireCapability(w, r, "upstream", "read") {
		return
	}

	start := time.Now()
	prefs, err := h.upstream.GetPlayerPreferences(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Failed to fetch player preferences", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   prefs,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// UpstreamPurgePreferences drops the cached player preferences so the
// next read refetches.
// POST /api/v1/upstream/preferences/purge
func (h *Handler) UpstreamPurgePreferences(w http.ResponseWriter, r *http.Request) {
	if !h.requireCapability(w, r, "upstream", "purge") {
		return
	}

	h.upstream.PurgePreferences()

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]bool{
			"purged": true,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// UpstreamIsLive checks whether a remote event is currently live.
// GET /api/v1/upstream/events/{eventID}/live
func (h *Handler) UpstreamIsLive(w http.ResponseWriter, r *http.Request) {
	if !h.requireCapability(w, r, "upstream", "read") {
		return
	}

	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "eventID path parameter is required", nil)
		return
	}

	status, err := h.upstream.IsLive(r.Context(), eventID)
	if err != nil {
		respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Failed to check live status", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   status,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
