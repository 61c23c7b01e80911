// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package api

import (
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/TVWIT/invintus-sync/internal/logging"
	"github.com/TVWIT/invintus-sync/internal/models"
)

// settingUpdateRequest is the body for PUT /api/v1/settings.
type settingUpdateRequest struct {
	Key   string `json:"key" validate:"required,max=128"`
	Value string `json:"value" validate:"max=4096"`
}

// GetSettings returns all persisted runtime settings.
// GET /api/v1/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	if !h.requireCapability(w, r, "settings", "read") {
		return
	}

	settings, err := h.db.AllSettings(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load settings", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   settings,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// PutSetting upserts a single runtime setting.
// PUT /api/v1/settings
func (h *Handler) PutSetting(w http.ResponseWriter, r *http.Request) {
	if !h.requireCapability(w, r, "settings", "write") {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to read request body", err)
		return
	}
	defer r.Body.Close()

	var req settingUpdateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, http.StatusBadRequest, "MALFORMED_PAYLOAD", "Failed to parse request JSON", err)
		return
	}

	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status:   "error",
			Metadata: models.Metadata{Timestamp: time.Now()},
			Error:    apiErr,
		})
		return
	}

	if err := h.db.SetSetting(r.Context(), req.Key, req.Value); err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to persist setting", err)
		return
	}

	logging.Info().Str("key", sanitizeLogValue(req.Key)).Msg("setting updated")

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]string{
			"key":   req.Key,
			"value": req.Value,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
