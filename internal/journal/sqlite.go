package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// openSQLite opens (and creates if needed) the journal database at path and
// ensures its tables exist.
func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps :memory: databases coherent and serializes
	// writers from one process.
	db.SetMaxOpenConns(1)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign_keys: %w", err)
	}
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if err := bootstrap(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func bootstrap(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS operations (
  id             TEXT PRIMARY KEY,
  kind           TEXT NOT NULL,
  host           TEXT NOT NULL,
  workspace_id   TEXT NOT NULL,
  workspace_name TEXT,
  started_at     TEXT NOT NULL,
  finished_at    TEXT NOT NULL,
  outcome        TEXT NOT NULL,
  lock_released  INTEGER NOT NULL DEFAULT 0,
  error          TEXT,
  detail         JSON NOT NULL DEFAULT '{}',
  state_digest   TEXT,
  state_backup   BLOB
);`,
		`CREATE INDEX IF NOT EXISTS operations_started_at_idx ON operations(started_at);`,
		`CREATE INDEX IF NOT EXISTS operations_workspace_idx ON operations(workspace_id, started_at);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap journal: %w", err)
		}
	}
	return nil
}
