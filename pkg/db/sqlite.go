package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the sql.DB connection
type DB struct {
	*sql.DB
}

// NewDB creates a new SQLite database connection
func NewDB(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.DB.Close()
}

// InitSchema initializes the database schema
func (d *DB) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS notes (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		content TEXT NOT NULL,
		category TEXT NOT NULL,
		title TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pending_notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS categories (
		name TEXT PRIMARY KEY,
		color TEXT NOT NULL,
		builtin INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		action_type TEXT NOT NULL,
		schedule_kind TEXT NOT NULL,
		schedule_expr TEXT NOT NULL,
		timezone TEXT NOT NULL DEFAULT 'UTC',
		payload TEXT NOT NULL DEFAULT '{}',
		enabled INTEGER NOT NULL DEFAULT 1,
		last_run_at DATETIME,
		next_run_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS job_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id INTEGER NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		output TEXT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS drive_sync (
		drive_file_id TEXT PRIMARY KEY,
		local_path TEXT NOT NULL UNIQUE,
		last_synced_at DATETIME NOT NULL,
		direction TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS drive_watch (
		drive_file_id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		imported_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS calendar_sync (
		note_id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		sync_key TEXT NOT NULL,
		synced_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS calendar_watch (
		event_id TEXT PRIMARY KEY,
		summary TEXT NOT NULL,
		imported_at DATETIME NOT NULL
	);
	`

	_, err := d.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to init schema: %w", err)
	}

	return nil
}
