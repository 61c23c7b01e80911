// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package api

import (
	"net/http"
	"time"

	"github.com/TVWIT/invintus-sync/internal/models"
)

// HealthLive answers the liveness probe. It returns 200 whenever the
// process is up, regardless of dependencies.
// GET /api/v1/health/live
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthReady answers the readiness probe. Ready means the content store
// answers a ping.
// GET /api/v1/health/ready
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	status := http.StatusOK
	responseStatus := "success"
	if !dbConnected {
		status = http.StatusServiceUnavailable
		responseStatus = "error"
	}

	response := &models.APIResponse{
		Status: responseStatus,
		Data: map[string]interface{}{
			"ready":              dbConnected,
			"database_connected": dbConnected,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	}
	if !dbConnected {
		response.Error = &models.APIError{
			Code:    "NOT_READY",
			Message: "Database is not reachable",
		}
	}

	respondJSON(w, status, response)
}
