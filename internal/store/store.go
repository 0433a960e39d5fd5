package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migration upgrades a generation log written by an older wrapgen.
// Version is the user_version the log carries once apply has run.
type migration struct {
	version int
	name    string
	apply   func(ctx context.Context, tx *sql.Tx) error
}

// migrations run in order on every Open. Each one checks the log before
// changing it, so logs created from the current schema.sql pass through.
var migrations = []migration{
	{1, "status index", addStatusIndex},
	{2, "options digest", addOptionsDigest},
}

// schemaVersion is the user_version of an up-to-date log.
var schemaVersion = migrations[len(migrations)-1].version

// pragmas apply per connection. The store holds exactly one.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// Store is the generation log.
type Store struct {
	db *sql.DB
}

// Open opens the generation log at path, creating it if needed, and brings
// an older log up to the current schema. ":memory:" opens a private log.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open generation log: %w", err)
	}

	// Module workers write through one connection, which also keeps a
	// :memory: log from splitting into several databases.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initialize(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open generation log %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the log. Closing twice is harmless.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initialize(ctx context.Context, db *sql.DB) error {
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return migrate(ctx, db)
}

// migrate applies every migration newer than the log's user_version, one
// transaction each, so a failed step leaves the log at the previous version.
func migrate(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if err := m.apply(ctx, tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		// PRAGMA does not take bound parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		version = m.version
	}
	return nil
}

// addStatusIndex backs `history` listings of failed modules.
func addStatusIndex(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_module_results_status
		ON module_results(status, run_id)
	`)
	return err
}

// addOptionsDigest adds the options digest column to logs written before
// module results carried one. Existing rows get an empty digest.
func addOptionsDigest(ctx context.Context, tx *sql.Tx) error {
	ok, err := hasColumn(ctx, tx, "module_results", "options_digest")
	if err != nil || ok {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		ALTER TABLE module_results
		ADD COLUMN options_digest TEXT NOT NULL DEFAULT ''
	`)
	return err
}

func hasColumn(ctx context.Context, tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
