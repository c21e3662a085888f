// Package sqlite provides a flag store persisted in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS flags (
	name       TEXT PRIMARY KEY,
	value      INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`

// FlagStore implements ports.FlagStore on SQLite.
type FlagStore struct {
	sqlDB   *sql.DB
	logger  *slog.Logger
	timeout time.Duration
}

// Open opens (creating if needed) the flag database at path.
// ":memory:" keeps the flags in process memory.
func Open(path string, logger *slog.Logger) (*FlagStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create flags table: %w", err)
	}
	return &FlagStore{sqlDB: sqlDB, logger: logger, timeout: 2 * time.Second}, nil
}

// Close releases the underlying SQLite connection.
func (s *FlagStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// GetFlagState reads a flag. Unknown flags and query errors read as false and are logged.
func (s *FlagStore) GetFlagState(name string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var value int64
	err := s.sqlDB.QueryRowContext(ctx, `SELECT value FROM flags WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("unknown flag, defaulting to false", "flag", name)
		return false
	}
	if err != nil {
		s.logger.Error("sqlite flag read failed", "flag", name, "err", err)
		return false
	}
	return value != 0
}

// SetFlagState upserts a flag.
func (s *FlagStore) SetFlagState(name string, value bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	encoded := 0
	if value {
		encoded = 1
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO flags (name, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, encoded, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		s.logger.Error("sqlite flag write failed", "flag", name, "err", err)
	}
}

// ListFlags returns every stored flag.
func (s *FlagStore) ListFlags() (map[string]bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT name, value FROM flags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var name string
		var value int64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan flag: %w", err)
		}
		out[name] = value != 0
	}
	return out, rows.Err()
}
