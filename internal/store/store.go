// Package store is the persistence gateway over SQLite.
// The aggregation engine depends only on the narrow operations here; no
// multi-row transaction is assumed by callers.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store handles database operations
type Store struct {
	db *sql.DB
}

// LogEntry is one productivity-log row. Raw entries are created by users;
// summary entries are created by aggregation runs. Raw entries are mutated
// only to flip is_processed and set parent_id once consumed.
type LogEntry struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Content     string    `json:"content"`
	Type        string    `json:"type"`   // task, note, summary, ai_suggestion
	Status      string    `json:"status"` // in_progress, done, pending
	Tags        []string  `json:"tags"`
	Timestamp   time.Time `json:"timestamp"`
	IsProcessed bool      `json:"is_processed"`
	IsPinned    bool      `json:"is_pinned"`
	ParentID    *int64    `json:"parent_id,omitempty"`
}

// ModelConfig is the per-user LLM configuration, one row per user.
// The api_key is stored as given; encryption at rest is deferred.
type ModelConfig struct {
	UserID    int64  `json:"user_id"`
	Provider  string `json:"provider"`
	ModelName string `json:"model_name"`
	APIKey    string `json:"api_key"`
}

// User is a registered account.
type User struct {
	ID           int64
	Username     string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
}

// Database configuration constants
const (
	// busyTimeoutMs is how long SQLite waits when the database is locked
	busyTimeoutMs = 5000
	// maxOpenConns limits concurrent connections (SQLite works best with 1)
	maxOpenConns = 1
	// maxIdleConns is the number of idle connections to keep
	maxIdleConns = 1
	// connMaxLifetime is how long a connection can be reused
	connMaxLifetime = 30 * time.Minute
)

// New creates a new store instance
func New(dbPath string) (*Store, error) {
	// Create directory if it doesn't exist (0700 for security - owner only)
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// The _busy_timeout pragma prevents "database is locked" errors by waiting
	dsn := fmt.Sprintf("%s?_busy_timeout=%d", dbPath, busyTimeoutMs)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// currentSchemaVersion is the latest schema version.
// Increment this when adding new migrations.
const currentSchemaVersion = 2

// initSchema creates the database schema if it doesn't exist
func (s *Store) initSchema() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	version := s.getSchemaVersion()

	if err := s.migrateSchema(version); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	return nil
}

// getSchemaVersion returns the current schema version (0 if not set)
func (s *Store) getSchemaVersion() int {
	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if err != nil {
		return 0
	}
	return version
}

// setSchemaVersion updates the schema version
func (s *Store) setSchemaVersion(version int) error {
	if _, err := s.db.Exec(`DELETE FROM schema_version`); err != nil {
		return err
	}
	if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, version); err != nil {
		return err
	}
	return nil
}

// migrateSchema runs migrations from currentVersion to latest
func (s *Store) migrateSchema(currentVersion int) error {
	if currentVersion >= currentSchemaVersion {
		return nil
	}

	log.Printf("store: migrating schema from version %d to %d", currentVersion, currentSchemaVersion)

	if currentVersion < 1 {
		if err := s.migrateV1(); err != nil {
			return fmt.Errorf("migration v1 failed: %w", err)
		}
	}

	if currentVersion < 2 {
		if err := s.migrateV2(); err != nil {
			return fmt.Errorf("migration v2 failed: %w", err)
		}
	}

	if err := s.setSchemaVersion(currentSchemaVersion); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}

	return nil
}

// migrateV1 creates the base tables
func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL,
		phone TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		content TEXT NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		timestamp TEXT NOT NULL,
		is_processed INTEGER NOT NULL DEFAULT 0,
		parent_id INTEGER
	);

	CREATE TABLE IF NOT EXISTS model_configs (
		user_id INTEGER PRIMARY KEY,
		provider TEXT NOT NULL,
		model_name TEXT NOT NULL,
		api_key TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_logs_user_time ON logs(user_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_logs_unprocessed ON logs(user_id, is_processed);
	`

	_, err := s.db.Exec(schema)
	return err
}

// migrateV2 adds the is_pinned column
func (s *Store) migrateV2() error {
	var hasIsPinned bool
	rows, err := s.db.Query("PRAGMA table_info(logs)")
	if err != nil {
		return fmt.Errorf("failed to get table info: %w", err)
	}
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to scan column info: %w", err)
		}
		if name == "is_pinned" {
			hasIsPinned = true
			break
		}
	}
	_ = rows.Close()

	if !hasIsPinned {
		if _, err := s.db.Exec(`ALTER TABLE logs ADD COLUMN is_pinned INTEGER NOT NULL DEFAULT 0`); err != nil {
			return fmt.Errorf("failed to add is_pinned column: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
