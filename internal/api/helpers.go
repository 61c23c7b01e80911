// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/TVWIT/invintus-sync/internal/authz"
	"github.com/TVWIT/invintus-sync/internal/logging"
	"github.com/TVWIT/invintus-sync/internal/models"
	"github.com/TVWIT/invintus-sync/internal/validation"
)

// sanitizeLogValue removes control characters from strings to prevent log
// injection. Newlines, carriage returns, and other control characters are
// replaced with a hex escape.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", generateETag(data))
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

// generateETag creates a simple ETag from data using FNV-1a.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return strconv.FormatUint(uint64(hash), 16)
}

// respondError sends a structured error response.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", sanitizeLogValue(code)).Str("error", sanitizeLogValue(err.Error())).Msg("API error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// validateRequest validates a struct using the shared validator. Returns
// nil when validation passes.
func validateRequest(v interface{}) *models.APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}
	return &models.APIError{
		Code:    "VALIDATION_ERROR",
		Message: validationErr.Error(),
		Details: validationErr.Details(),
	}
}

// requireCapability checks the caller's role against the policy for the
// given object/action pair, writing a 403 response on denial. Returns
// true when the request may proceed.
func (h *Handler) requireCapability(w http.ResponseWriter, r *http.Request, object, action string) bool {
	role := authz.RoleFromContext(r.Context())
	allowed, err := h.enforcer.Enforce(role, object, action)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authorization check failed", err)
		return false
	}
	if !allowed {
		respondError(w, http.StatusForbidden, "FORBIDDEN", fmt.Sprintf("Role %q may not %s %s", role, action, object), nil)
		return false
	}
	return true
}

// getIntParam extracts an integer query parameter, falling back to def.
func getIntParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
