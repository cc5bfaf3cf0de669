// Package repository persists the dataset catalog: an audit trail of
// orchestrator runs and their units. Resume decisions stay file-presence
// based; the catalog exists for reporting and selective retry.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RunRecord is one orchestrator invocation.
type RunRecord struct {
	ID         string
	Kind       string
	OutputDir  string
	StartedAt  time.Time
	FinishedAt *time.Time
	Produced   int
	Skipped    int
	Failed     int
}

// UnitRecord is one unit of work within a run.
type UnitRecord struct {
	RunID      string
	UnitID     string
	PersonaID  string
	Kind       string
	Path       string
	Status     string // produced, skipped, failed
	Reason     string
	Score      *float64
	DurationMs int64
	CreatedAt  time.Time
}

// Catalog is a SQLite-backed run/unit store.
type Catalog struct {
	db *sql.DB
}

// NewCatalog creates a Catalog over an open database.
func NewCatalog(database *sql.DB) *Catalog {
	return &Catalog{db: database}
}

// StartRun records a new run.
func (c *Catalog) StartRun(ctx context.Context, r RunRecord) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, output_dir, started_at) VALUES (?, ?, ?, ?)`,
		r.ID, r.Kind, r.OutputDir, r.StartedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// FinishRun stamps the run's end time and counters.
func (c *Catalog) FinishRun(ctx context.Context, id string, finishedAt time.Time, produced, skipped, failed int) error {
	_, err := c.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, produced = ?, skipped = ?, failed = ? WHERE id = ?`,
		finishedAt.UTC().Format(time.RFC3339), produced, skipped, failed, id)
	if err != nil {
		return fmt.Errorf("updating run %s: %w", id, err)
	}
	return nil
}

// RecordUnit records one unit outcome.
func (c *Catalog) RecordUnit(ctx context.Context, u UnitRecord) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO units
			(run_id, unit_id, persona_id, kind, path, status, reason, score, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.RunID, u.UnitID, u.PersonaID, u.Kind, u.Path, u.Status, u.Reason,
		u.Score, u.DurationMs, u.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting unit %s/%s: %w", u.RunID, u.UnitID, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (c *Catalog) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, kind, output_dir, started_at, finished_at, produced, skipped, failed
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			r        RunRecord
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Kind, &r.OutputDir, &started, &finished, &r.Produced, &r.Skipped, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, started); err == nil {
			r.StartedAt = t
		}
		if finished.Valid {
			if t, err := time.Parse(time.RFC3339, finished.String); err == nil {
				r.FinishedAt = &t
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// FailedUnits returns the failed units of a run, for selective retry.
func (c *Catalog) FailedUnits(ctx context.Context, runID string) ([]UnitRecord, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT run_id, unit_id, persona_id, kind, path, status, reason, score, duration_ms, created_at
		 FROM units WHERE run_id = ? AND status = 'failed' ORDER BY unit_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing failed units: %w", err)
	}
	defer rows.Close()

	var out []UnitRecord
	for rows.Next() {
		var (
			u       UnitRecord
			score   sql.NullFloat64
			created string
		)
		if err := rows.Scan(&u.RunID, &u.UnitID, &u.PersonaID, &u.Kind, &u.Path, &u.Status, &u.Reason, &score, &u.DurationMs, &created); err != nil {
			return nil, fmt.Errorf("scanning unit: %w", err)
		}
		if score.Valid {
			v := score.Float64
			u.Score = &v
		}
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			u.CreatedAt = t
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
