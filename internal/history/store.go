// Package history keeps an audit log of generations in SQLite.
package history

import (
	"database/sql"
	"fmt"

	// SQLite driver (required for database/sql registration).
	_ "github.com/mattn/go-sqlite3"
)

// Store is the generation history database.
type Store struct {
	db *sql.DB
}

// Open opens the history database at path, creating tables if needed.
// Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// openDB opens a single SQLite database with optimal settings.
func openDB(dbPath string) (*sql.DB, error) {
	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL"
	if dbPath == ":memory:" {
		dsn = dbPath
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// one writer; also keeps an in-memory database alive
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	return db, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ============================================================
// SCHEMA
// ============================================================

func (s *Store) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		description TEXT
	);

	CREATE TABLE IF NOT EXISTS generations (
		id              TEXT PRIMARY KEY,
		recipe          TEXT NOT NULL,
		status          TEXT NOT NULL,
		error_code      TEXT,
		error_detail    TEXT,
		attempts        INTEGER NOT NULL DEFAULT 0,
		tokens_used     INTEGER NOT NULL DEFAULT 0,
		duration_ms     INTEGER NOT NULL DEFAULT 0,
		model           TEXT,
		input_json      TEXT,
		output_json     TEXT,
		created_at      INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_generations_created ON generations(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_generations_recipe ON generations(recipe, created_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init history schema: %w", err)
	}
	return ensureSchemaVersion(s.db, 1, "Initial history schema")
}

func ensureSchemaVersion(db *sql.DB, version int, description string) error {
	var current sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&current); err != nil {
		return err
	}

	if !current.Valid || int(current.Int64) < version {
		_, err := db.Exec(
			"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
			version,
			description,
		)
		return err
	}

	return nil
}
