// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

// Package database provides the DuckDB-backed persistence layer for
// connection records and relay messages. All queries run with bounded
// contexts; schema and indexes are created at startup.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/flybywiresim/api/internal/config"
)

// queryTimeout bounds every single-statement query.
const queryTimeout = 10 * time.Second

// DB wraps the DuckDB connection and provides data access methods.
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

	// Ensure the parent directory exists for file-backed databases.
	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn: conn,
		cfg:  cfg,
	}

	// DuckDB is an in-process engine; a small pool avoids write contention.
	conn.SetMaxOpenConns(numThreads)
	conn.SetMaxIdleConns(numThreads)
	conn.SetConnMaxLifetime(0)

	if err := db.initialize(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// Conn returns the underlying SQL database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Ping checks if the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// queryContext returns a context with the standard per-query timeout.
func queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// initialize creates tables and indexes.
func (db *DB) initialize() error {
	if err := db.createTables(); err != nil {
		return err
	}
	return db.createIndexes()
}

// createTables creates the core database tables.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// tableCreationQueries returns the table creation SQL statements.
func tableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS connections (
			id VARCHAR PRIMARY KEY,
			is_active BOOLEAN NOT NULL DEFAULT true,
			first_contact TIMESTAMP NOT NULL,
			last_contact TIMESTAMP NOT NULL,
			flight VARCHAR NOT NULL,
			longitude DOUBLE NOT NULL,
			latitude DOUBLE NOT NULL,
			true_altitude DOUBLE NOT NULL,
			heading DOUBLE NOT NULL,
			freetext_enabled BOOLEAN NOT NULL DEFAULT true,
			aircraft_type VARCHAR NOT NULL DEFAULT 'unknown',
			origin VARCHAR,
			destination VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id VARCHAR PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			from_id VARCHAR NOT NULL,
			to_id VARCHAR NOT NULL,
			message VARCHAR NOT NULL,
			is_profane BOOLEAN NOT NULL DEFAULT false,
			received BOOLEAN NOT NULL DEFAULT false
		)`,
	}
}

// createIndexes creates database indexes for query optimization.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		// Supports the duplicate-active-flight check and prefix search.
		`CREATE INDEX IF NOT EXISTS idx_connections_flight_active ON connections(flight, is_active)`,
		// Supports the staleness sweep.
		`CREATE INDEX IF NOT EXISTS idx_connections_active_contact ON connections(is_active, last_contact)`,
		// Supports fetchUnreceived and acknowledge.
		`CREATE INDEX IF NOT EXISTS idx_messages_to_received ON messages(to_id, received)`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute index query: %s: %w", query, err)
		}
	}

	return nil
}
