// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package audit

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TVWIT/invintus-sync/internal/database"
	"github.com/TVWIT/invintus-sync/internal/logging"
	"github.com/TVWIT/invintus-sync/internal/metrics"
)

// SettingSource provides runtime setting lookups. Satisfied by
// *database.DB; lookups that fail are treated as unset keys so the
// configured defaults apply.
type SettingSource interface {
	GetSetting(ctx context.Context, key string) (string, error)
}

// Config holds the configured defaults for the audit logger. Runtime
// settings stored alongside the content override these per lookup.
type Config struct {
	// LogPayloads enables delivery recording when no runtime setting
	// overrides it.
	LogPayloads bool

	// RetentionDays is the default retention window. Zero or negative
	// disables pruning.
	RetentionDays int
}

// Logger records webhook deliveries and prunes them per the retention
// policy. Recording and pruning are both gated on runtime settings so
// operators can adjust behavior without a restart.
type Logger struct {
	store    Store
	settings SettingSource
	config   Config
}

// NewLogger creates a new audit logger.
func NewLogger(store Store, settings SettingSource, config Config) *Logger {
	return &Logger{
		store:    store,
		settings: settings,
		config:   config,
	}
}

// Enabled reports whether payload recording is active. The runtime
// setting wins when present; otherwise the configured default applies.
func (l *Logger) Enabled(ctx context.Context) bool {
	if l.settings != nil {
		if val, err := l.settings.GetSetting(ctx, database.SettingLogPayloads); err == nil {
			return truthy(val)
		}
	}
	return l.config.LogPayloads
}

// RetentionDays returns the active retention window in days. A stored
// value that is non-numeric, zero, or negative disables pruning, as
// does an unset value when the configured default is not positive.
func (l *Logger) RetentionDays(ctx context.Context) int {
	if l.settings != nil {
		if val, err := l.settings.GetSetting(ctx, database.SettingLogRetention); err == nil {
			days, convErr := strconv.Atoi(strings.TrimSpace(val))
			if convErr != nil || days <= 0 {
				return 0
			}
			return days
		}
	}
	if l.config.RetentionDays <= 0 {
		return 0
	}
	return l.config.RetentionDays
}

// Record logs a single webhook delivery. A zero eventID marks a
// delivery that carried no usable event identifier. Recording is
// best-effort: failures are logged, never surfaced to the webhook
// response path.
func (l *Logger) Record(ctx context.Context, eventID int64, action, payload string) {
	if !l.Enabled(ctx) {
		return
	}

	entry := &Entry{
		ID:        uuid.NewString(),
		EventID:   eventID,
		Action:    action,
		Payload:   payload,
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
	}

	if err := l.store.Save(ctx, entry); err != nil {
		logging.Error().Err(err).Int64("event_id", eventID).Str("action", action).
			Msg("Failed to record webhook delivery")
		return
	}

	metrics.AuditEntriesLogged.Inc()
}

// Prune removes entries older than the retention window. A disabled
// window (see RetentionDays) makes this a no-op.
func (l *Logger) Prune(ctx context.Context) (int64, error) {
	days := l.RetentionDays(ctx)
	if days <= 0 {
		return 0, nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	count, err := l.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		metrics.AuditEntriesPruned.Add(float64(count))
	}
	return count, nil
}

// Query retrieves entries matching the filter.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	return l.store.Query(ctx, filter)
}

// Count returns the number of entries matching the filter.
func (l *Logger) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return l.store.Count(ctx, filter)
}

// truthy interprets a stored boolean setting.
func truthy(val string) bool {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
