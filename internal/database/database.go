// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

// Package database wraps the DuckDB connection and provides data access
// for content records, taxonomy nodes, and persisted settings.
//
// DuckDB is embedded, so there is no external database dependency; an
// empty path opens an in-memory database, which tests use.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/TVWIT/invintus-sync/internal/config"
	"github.com/TVWIT/invintus-sync/internal/logging"
)

// DB wraps the DuckDB connection.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New opens the database and initializes the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	connStr := ""
	if cfg.Path != "" {
		// Ensure the parent directory exists before DuckDB opens the file.
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
		connStr = fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
			cfg.Path, numThreads, cfg.MaxMemory)
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}

	if err := db.initSchema(context.Background()); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Msg("Database opened")
	return db, nil
}

// Conn exposes the underlying *sql.DB for collaborators that manage their
// own tables (the audit store).
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection.
func (db *DB) Close() error {
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func closeQuietly(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close database connection")
	}
}
