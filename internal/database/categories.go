// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/TVWIT/invintus-sync/internal/models"
)

const categoryColumns = `id, remote_category_id, name, slug, description, parent_id`

// GetCategoryByRemoteID looks up a taxonomy node by its remote category
// ID. Returns ErrNotFound when absent.
func (db *DB) GetCategoryByRemoteID(ctx context.Context, remoteCategoryID int64) (*models.CategoryNode, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE remote_category_id = ?`, remoteCategoryID)
	return scanCategory(row)
}

// GetCategoryByName looks up a taxonomy node by exact name. This is the
// fallback used to adopt pre-existing taxonomy created by other means.
// Returns ErrNotFound when absent.
func (db *DB) GetCategoryByName(ctx context.Context, name string) (*models.CategoryNode, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE name = ? ORDER BY id LIMIT 1`, name)
	return scanCategory(row)
}

// GetCategory returns a taxonomy node by local ID.
func (db *DB) GetCategory(ctx context.Context, id string) (*models.CategoryNode, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	return scanCategory(row)
}

// InsertCategory persists a new taxonomy node, assigning an ID if absent.
func (db *DB) InsertCategory(ctx context.Context, node *models.CategoryNode) error {
	if node.ID == "" {
		node.ID = uuid.New().String()
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO categories (id, remote_category_id, name, slug, description, parent_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		node.ID, node.RemoteCategoryID, node.Name, node.Slug, node.Description, nullableString(node.ParentID))
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

// UpdateCategory updates a node's remote ID, name, slug, description, and
// parent linkage.
func (db *DB) UpdateCategory(ctx context.Context, node *models.CategoryNode) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE categories SET remote_category_id = ?, name = ?, slug = ?, description = ?, parent_id = ?
		 WHERE id = ?`,
		node.RemoteCategoryID, node.Name, node.Slug, node.Description, nullableString(node.ParentID), node.ID)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCategory(row *sql.Row) (*models.CategoryNode, error) {
	var node models.CategoryNode
	var remoteID sql.NullInt64
	var parentID sql.NullString

	err := row.Scan(&node.ID, &remoteID, &node.Name, &node.Slug, &node.Description, &parentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}

	if remoteID.Valid {
		node.RemoteCategoryID = remoteID.Int64
	}
	if parentID.Valid {
		node.ParentID = &parentID.String
	}
	return &node, nil
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
