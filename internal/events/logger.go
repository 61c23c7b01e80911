// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"github.com/TVWIT/invintus-sync/internal/logging"
)

// watermillLogger adapts the application logger to watermill's
// LoggerAdapter. Trace output is mapped to debug level.
type watermillLogger struct {
	fields watermill.LogFields
}

// NewLoggerAdapter returns a watermill logger backed by the global
// application logger.
func NewLoggerAdapter() watermill.LoggerAdapter {
	return &watermillLogger{}
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.emit(logging.Error(), fields).Err(err).Msg(msg)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.emit(logging.Info(), fields).Msg(msg)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.emit(logging.Debug(), fields).Msg(msg)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.emit(logging.Debug(), fields).Msg(msg)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{fields: l.fields.Add(fields)}
}

func (l *watermillLogger) emit(ev *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range l.fields {
		ev = ev.Interface(k, v)
	}
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	return ev
}
