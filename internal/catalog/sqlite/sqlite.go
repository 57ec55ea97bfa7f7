// Package sqlite keeps the crater catalog in a local SQLite database. Each
// extraction run is recorded with its catalog snapshot; readers serve the
// most recent run.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"cratercat/internal/catalog"
	"cratercat/internal/crater"
)

//go:embed schema.sql
var schemaSQL string

const runTimeLayout = "2006-01-02T15:04:05Z"

// Store is a SQLite-backed catalog store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog database at path and applies
// the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying catalog schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveCatalog records a run and its catalog snapshot in one transaction.
func (s *Store) SaveCatalog(ctx context.Context, run catalog.Run, craters []crater.Crater) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, images, raw_detections, unique_craters)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt.UTC().Format(runTimeLayout), run.Images, run.RawDetections, run.Unique)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO craters (run_id, lon, lat, radius_km) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing crater insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range craters {
		if _, err := stmt.ExecContext(ctx, run.ID, c.Lon, c.Lat, c.RadiusKm); err != nil {
			return fmt.Errorf("inserting crater: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing catalog: %w", err)
	}
	return nil
}

// latestRunQuery selects the id of the most recent run.
const latestRunQuery = `SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`

// Craters returns the catalog of the most recent run in insertion order.
func (s *Store) Craters(ctx context.Context) ([]crater.Crater, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT lon, lat, radius_km FROM craters
		WHERE run_id = (`+latestRunQuery+`)
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying craters: %w", err)
	}
	defer rows.Close()

	var craters []crater.Crater
	for rows.Next() {
		var c crater.Crater
		if err := rows.Scan(&c.Lon, &c.Lat, &c.RadiusKm); err != nil {
			return nil, fmt.Errorf("scanning crater: %w", err)
		}
		craters = append(craters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating craters: %w", err)
	}
	return craters, nil
}

// Count returns the catalog size of the most recent run.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM craters WHERE run_id = (`+latestRunQuery+`)
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting craters: %w", err)
	}
	return n, nil
}

// Runs returns all recorded runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]catalog.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, images, raw_detections, unique_craters
		FROM runs ORDER BY started_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []catalog.Run
	for rows.Next() {
		var r catalog.Run
		var started string
		if err := rows.Scan(&r.ID, &started, &r.Images, &r.RawDetections, &r.Unique); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(runTimeLayout, started)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}
