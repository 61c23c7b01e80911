// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/TVWIT/invintus-sync/internal/logging"
)

// DuckDBStore implements Store using DuckDB for persistent storage.
// This provides durable delivery logging suitable for production use.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore creates a new DuckDB-backed audit store.
// The caller should invoke CreateTable during initialization.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTable creates the invintus_log table if it doesn't exist.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS invintus_log (
			id TEXT PRIMARY KEY,
			event_id BIGINT NOT NULL,
			action VARCHAR(20) NOT NULL,
			payload TEXT NOT NULL,
			date TIMESTAMP NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_invintus_log_date ON invintus_log(date DESC);
		CREATE INDEX IF NOT EXISTS idx_invintus_log_event_id ON invintus_log(event_id);
	`

	for _, stmt := range strings.Split(query, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	logging.Info().Msg("Webhook delivery log table created/verified")
	return nil
}

// Save persists an audit entry.
func (s *DuckDBStore) Save(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}

	query := `INSERT INTO invintus_log (id, event_id, action, payload, date) VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.EventID, entry.Action, entry.Payload, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save audit entry: %w", err)
	}

	return nil
}

// Query retrieves entries matching the filter.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	query, args := buildQuery(filter, false)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.EventID, &entry.Action, &entry.Payload, &entry.Timestamp); err != nil {
			logging.Warn().Err(err).Msg("Failed to scan audit entry row")
			continue
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}

// Count returns the number of entries matching the filter.
func (s *DuckDBStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	query, args := buildQuery(filter, true)

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	return count, nil
}

// DeleteOlderThan removes entries recorded before the given time.
func (s *DuckDBStore) DeleteOlderThan(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM invintus_log WHERE date < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit entries: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted count: %w", err)
	}

	if count > 0 {
		logging.Info().Int64("deleted", count).Time("older_than", olderThan).Msg("Deleted old audit entries")
	}

	return count, nil
}

// buildQuery constructs the SQL query based on the filter.
func buildQuery(filter QueryFilter, countOnly bool) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.EventID != 0 {
		conditions = append(conditions, "event_id = ?")
		args = append(args, filter.EventID)
	}
	if filter.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, filter.Action)
	}
	if filter.StartTime != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, *filter.StartTime)
	}
	if filter.EndTime != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, *filter.EndTime)
	}

	query := "SELECT id, event_id, action, payload, date FROM invintus_log"
	if countOnly {
		query = "SELECT COUNT(*) FROM invintus_log"
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	if !countOnly {
		if filter.OrderDesc {
			query += " ORDER BY date DESC"
		} else {
			query += " ORDER BY date ASC"
		}
		if filter.Limit > 0 {
			query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		}
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	return query, args
}
