// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/TVWIT/invintus-sync/internal/models"
)

const recordColumns = `
	id, remote_event_id, title, slug, body, published_at, state,
	custom_id, description, caption, thumbnail, audio, location, total_runtime,
	CAST(tags AS VARCHAR) AS tags, created_at, updated_at`

// FindRecordsByRemoteEventID returns every record correlated with the
// given remote event ID, oldest first. At most one is expected; callers
// decide how to handle extras.
func (db *DB) FindRecordsByRemoteEventID(ctx context.Context, remoteEventID string) ([]models.LocalRecord, error) {
	query := `SELECT` + recordColumns + `
		FROM records WHERE remote_event_id = ? ORDER BY created_at ASC`

	rows, err := db.conn.QueryContext(ctx, query, remoteEventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []models.LocalRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	for i := range records {
		ids, err := db.recordCategoryIDs(ctx, records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].CategoryIDs = ids
	}

	return records, nil
}

// GetRecord returns a single record by local ID.
func (db *DB) GetRecord(ctx context.Context, id string) (*models.LocalRecord, error) {
	query := `SELECT` + recordColumns + ` FROM records WHERE id = ?`

	row := db.conn.QueryRowContext(ctx, query, id)
	record, err := scanRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	record.CategoryIDs, err = db.recordCategoryIDs(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// InsertRecord persists a new record and its category associations.
// A missing ID is assigned; timestamps are set.
func (db *DB) InsertRecord(ctx context.Context, record *models.LocalRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	// DuckDB TIMESTAMP is microsecond precision; truncate so the
	// struct matches what a later read returns.
	now := time.Now().UTC().Truncate(time.Microsecond)
	record.CreatedAt = now
	record.UpdatedAt = now

	query := `INSERT INTO records (
		id, remote_event_id, title, slug, body, published_at, state,
		custom_id, description, caption, thumbnail, audio, location, total_runtime,
		tags, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.conn.ExecContext(ctx, query,
		record.ID, record.RemoteEventID, record.Title, record.Slug, record.Body,
		nullableTime(record.PublishedAt), string(record.State),
		record.CustomID, record.Description, record.Caption, record.Thumbnail,
		record.Audio, record.Location, record.TotalRuntime,
		marshalTags(record.Tags), record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	return db.replaceRecordCategories(ctx, record.ID, record.CategoryIDs)
}

// UpdateRecord updates an existing record in place, preserving its local
// ID and created_at, and replaces its category associations.
func (db *DB) UpdateRecord(ctx context.Context, record *models.LocalRecord) error {
	record.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	query := `UPDATE records SET
		remote_event_id = ?, title = ?, slug = ?, body = ?, published_at = ?, state = ?,
		custom_id = ?, description = ?, caption = ?, thumbnail = ?, audio = ?,
		location = ?, total_runtime = ?, tags = ?, updated_at = ?
		WHERE id = ?`

	result, err := db.conn.ExecContext(ctx, query,
		record.RemoteEventID, record.Title, record.Slug, record.Body,
		nullableTime(record.PublishedAt), string(record.State),
		record.CustomID, record.Description, record.Caption, record.Thumbnail,
		record.Audio, record.Location, record.TotalRuntime,
		marshalTags(record.Tags), record.UpdatedAt, record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return ErrNotFound
	}

	return db.replaceRecordCategories(ctx, record.ID, record.CategoryIDs)
}

// DeleteRecord permanently removes a record and its category associations.
func (db *DB) DeleteRecord(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM record_categories WHERE record_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete record categories: %w", err)
	}
	result, err := db.conn.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountRecordsByRemoteEventID returns how many records share a remote
// event ID. Used by tests and integrity checks.
func (db *DB) CountRecordsByRemoteEventID(ctx context.Context, remoteEventID string) (int64, error) {
	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE remote_event_id = ?`, remoteEventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

func (db *DB) replaceRecordCategories(ctx context.Context, recordID string, categoryIDs []string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM record_categories WHERE record_id = ?`, recordID); err != nil {
		return fmt.Errorf("failed to clear record categories: %w", err)
	}
	for _, categoryID := range categoryIDs {
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO record_categories (record_id, category_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			recordID, categoryID); err != nil {
			return fmt.Errorf("failed to associate category %s: %w", categoryID, err)
		}
	}
	return nil
}

func (db *DB) recordCategoryIDs(ctx context.Context, recordID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT category_id FROM record_categories WHERE record_id = ? ORDER BY category_id`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query record categories: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan category id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (*models.LocalRecord, error) {
	var record models.LocalRecord
	var publishedAt sql.NullTime
	var tags sql.NullString
	var state string

	err := s.Scan(
		&record.ID, &record.RemoteEventID, &record.Title, &record.Slug, &record.Body,
		&publishedAt, &state,
		&record.CustomID, &record.Description, &record.Caption, &record.Thumbnail,
		&record.Audio, &record.Location, &record.TotalRuntime,
		&tags, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.State = models.LifecycleState(state)
	if publishedAt.Valid {
		record.PublishedAt = publishedAt.Time
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &record.Tags); err != nil {
			return nil, fmt.Errorf("failed to parse tags: %w", err)
		}
	}
	return &record, nil
}

func marshalTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
