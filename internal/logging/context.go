// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	requestIDKey     contextKey = "request_id"
	correlationIDKey contextKey = "correlation_id"
)

// ContextWithRequestID stores an HTTP request ID in the context so that
// Ctx() loggers carry it on every line for that request.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithCorrelationID stores a correlation ID linking related log lines.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// ContextWithNewCorrelationID generates and stores a fresh correlation ID.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, uuid.New().String())
}

// RequestIDFromContext returns the request ID, or "" if not set.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// CorrelationIDFromContext returns the correlation ID, or "" if not set.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns a logger annotated with any request and correlation IDs
// carried by the context.
func Ctx(ctx context.Context) *zerolog.Logger {
	builder := With()
	if id := RequestIDFromContext(ctx); id != "" {
		builder = builder.Str("request_id", id)
	}
	if id := CorrelationIDFromContext(ctx); id != "" {
		builder = builder.Str("correlation_id", id)
	}
	l := builder.Logger()
	return &l
}
