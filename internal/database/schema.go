// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package database

import (
	"context"
	"fmt"
	"strings"
)

// schema holds the DDL for the content store. Statements are idempotent;
// initSchema runs on every startup.
//
// records.remote_event_id is deliberately not UNIQUE: duplicate rows can
// predate this service or arrive through external writes, and the delete
// path must be able to remove all of them. Concurrent same-key upserts are
// serialized by the reconcile engine instead.
const schema = `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		remote_event_id TEXT NOT NULL,
		title TEXT NOT NULL,
		slug TEXT NOT NULL,
		body TEXT,
		published_at TIMESTAMP,
		state TEXT NOT NULL,
		custom_id TEXT,
		description TEXT,
		caption TEXT,
		thumbnail TEXT,
		audio TEXT,
		location TEXT,
		total_runtime TEXT,
		tags JSON,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_remote_event_id ON records(remote_event_id);
	CREATE INDEX IF NOT EXISTS idx_records_state ON records(state);

	CREATE TABLE IF NOT EXISTS record_categories (
		record_id TEXT NOT NULL,
		category_id TEXT NOT NULL,
		PRIMARY KEY (record_id, category_id)
	);

	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		remote_category_id BIGINT,
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		description TEXT,
		parent_id TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_categories_remote_id ON categories(remote_category_id);
	CREATE INDEX IF NOT EXISTS idx_categories_name ON categories(name);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
`

func (db *DB) initSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}
