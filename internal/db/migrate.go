package db

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		kind        TEXT NOT NULL,
		output_dir  TEXT NOT NULL,
		started_at  TEXT NOT NULL,
		finished_at TEXT,
		produced    INTEGER NOT NULL DEFAULT 0,
		skipped     INTEGER NOT NULL DEFAULT 0,
		failed      INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS units (
		run_id      TEXT NOT NULL REFERENCES runs(id),
		unit_id     TEXT NOT NULL,
		persona_id  TEXT NOT NULL DEFAULT '',
		kind        TEXT NOT NULL,
		path        TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL,
		reason      TEXT NOT NULL DEFAULT '',
		score       REAL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL,
		PRIMARY KEY (run_id, unit_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_units_persona ON units(persona_id)`,
}

// Migrate runs all schema migrations.
func Migrate(database *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := database.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
