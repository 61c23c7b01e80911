// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/TVWIT/invintus-sync/internal/audit"
	"github.com/TVWIT/invintus-sync/internal/models"
)

// QueryAudit returns a filtered page of the webhook audit trail.
// GET /api/v1/audit
//
// Query parameters: limit, offset, event_id, action, start_time,
// end_time (RFC3339), order=asc|desc.
func (h *Handler) QueryAudit(w http.ResponseWriter, r *http.Request) {
	if !h.requireCapability(w, r, "audit", "read") {
		return
	}

	ctx := r.Context()
	filter := audit.DefaultQueryFilter()

	if limit := getIntParam(r, "limit", filter.Limit); limit > 0 && limit <= 1000 {
		filter.Limit = limit
	}
	if offset := getIntParam(r, "offset", 0); offset > 0 {
		filter.Offset = offset
	}
	if v := r.URL.Query().Get("event_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.EventID = id
		}
	}
	if v := r.URL.Query().Get("action"); v != "" {
		filter.Action = v
	}
	if v := r.URL.Query().Get("start_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.StartTime = &t
		}
	}
	if v := r.URL.Query().Get("end_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.EndTime = &t
		}
	}
	if r.URL.Query().Get("order") == "asc" {
		filter.OrderDesc = false
	}

	entries, err := h.audit.Query(ctx, filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to query audit log", err)
		return
	}

	total, err := h.audit.Count(ctx, filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to count audit entries", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"entries": entries,
			"total":   total,
			"limit":   filter.Limit,
			"offset":  filter.Offset,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
