// Package store persists structured health data in sqlite. The conversational
// core only ever touches it through tool handlers and the usage sink.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"vita/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS fast (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	start_at INTEGER NOT NULL,
	end_at INTEGER,
	duration_minutes INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'open'
);
CREATE INDEX IF NOT EXISTS idx_fast_user_status ON fast(user_id, status);

CREATE TABLE IF NOT EXISTS meal (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	label TEXT NOT NULL,
	items TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	logged_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_meal_user ON meal(user_id, logged_at);

CREATE TABLE IF NOT EXISTS sleep_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	hours REAL NOT NULL,
	quality TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	logged_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS vitals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	value REAL NOT NULL,
	unit TEXT NOT NULL DEFAULT '',
	logged_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS usage_record (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	tier TEXT NOT NULL,
	operation TEXT NOT NULL,
	model TEXT NOT NULL DEFAULT '',
	tokens_in INTEGER NOT NULL DEFAULT 0,
	tokens_out INTEGER NOT NULL DEFAULT 0,
	recorded_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS user_key (
	user_id TEXT PRIMARY KEY,
	encrypted_key TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Store wraps the sqlite handle used by tool handlers and the usage sink.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// Open opens (or creates) the sqlite database at path and applies the schema.
// Use ":memory:" for tests.
func Open(path string, logger logging.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path must not be empty")
	}
	dsn := path
	if path != ":memory:" {
		// Busy timeout keeps short tool writes from failing under concurrent turns.
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		// A second connection to :memory: would see a different database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, logger: logging.OrNop(logger)}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the handle is still usable, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
