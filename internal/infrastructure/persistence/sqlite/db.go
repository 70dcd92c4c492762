// Package sqlite implements the match record store and saved lineup
// repository on an embedded SQLite database (modernc.org/sqlite, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
)

// DB is an open SQLite database with the schema applied.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
//
// SQLite serializes writers, so the pool is pinned to one connection; this
// also keeps a ":memory:" database alive across calls.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	d := &DB{db: db}
	if err := d.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks that the database is usable.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DB) init(ctx context.Context) error {
	schema := `
		PRAGMA foreign_keys = ON;
		PRAGMA busy_timeout = 5000;

		CREATE TABLE IF NOT EXISTS players (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS match_participations (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			player_id TEXT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			match_id TEXT NOT NULL,
			role TEXT NOT NULL,
			champion TEXT NOT NULL DEFAULT '',
			kills INTEGER,
			deaths INTEGER,
			assists INTEGER,
			creep_score INTEGER,
			vision_score INTEGER,
			duration_seconds INTEGER,
			result TEXT NOT NULL DEFAULT '',
			side TEXT NOT NULL DEFAULT '',
			lane_allocation TEXT NOT NULL DEFAULT '',
			composition_style TEXT NOT NULL DEFAULT '',
			played_at_ns INTEGER NOT NULL,
			UNIQUE (player_id, match_id)
		);

		CREATE INDEX IF NOT EXISTS idx_match_participations_player_played
			ON match_participations (player_id, played_at_ns, seq);

		CREATE TABLE IF NOT EXISTS saved_lineups (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			assignment TEXT NOT NULL,
			created_at_ns INTEGER NOT NULL,
			updated_at_ns INTEGER NOT NULL
		);
	`
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: failed to create schema: %w", err)
	}
	return nil
}

func sqliteCode(err error) int {
	var e *sqlite.Error
	if errors.As(err, &e) {
		return e.Code()
	}
	return 0
}

// Extended result codes are only reported when the connection enables them,
// so fall back to the primary code plus the message.
func isUniqueViolation(err error) bool {
	switch code := sqliteCode(err); code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(err.Error(), "UNIQUE")
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	switch code := sqliteCode(err); code {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(err.Error(), "FOREIGN KEY")
	}
	return false
}

// storeError marks lock contention as retryable and passes the rest through.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return shared.WrapError("store", op, shared.ErrStoreTimeout, "sqlite request timed out", err)
	case errors.Is(err, sql.ErrConnDone):
		return shared.WrapError("store", op, shared.ErrStoreUnavailable, "sqlite connection closed", err)
	}
	switch sqliteCode(err) & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return shared.WrapError("store", op, shared.ErrStoreUnavailable, "sqlite database is locked", err)
	}
	return fmt.Errorf("sqlite %s: %w", op, err)
}
