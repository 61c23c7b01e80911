// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package auth

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/TVWIT/invintus-sync/internal/authz"
	"github.com/TVWIT/invintus-sync/internal/logging"
	"github.com/TVWIT/invintus-sync/internal/models"
)

// RequireJWT validates the Authorization bearer token and stores the
// token's role in the request context for capability checks downstream.
func RequireJWT(manager *JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			claims, err := manager.ValidateToken(token)
			if err != nil {
				logging.Debug().Err(err).Msg("Rejected management token")
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx := authz.ContextWithRole(r.Context(), claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    "UNAUTHORIZED",
			Message: message,
		},
	})
}
