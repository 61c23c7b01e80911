// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

// Package middleware provides HTTP middleware shared by all routes:
// request IDs, Prometheus instrumentation, and security headers.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/TVWIT/invintus-sync/internal/logging"
)

type contextKey string

// RequestIDKey is the context key carrying the request ID.
const RequestIDKey contextKey = "request_id"

// RequestID assigns each request a unique ID, honoring an upstream
// X-Request-ID header when present, and wires it into the logging context
// together with a fresh correlation ID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = logging.ContextWithRequestID(ctx, requestID)
		ctx = logging.ContextWithNewCorrelationID(ctx)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID extracts the request ID from the context, or "".
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
