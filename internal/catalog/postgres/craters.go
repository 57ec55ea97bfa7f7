package postgres

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"cratercat/internal/catalog"
	"cratercat/internal/crater"
)

// CraterRepository provides PostgreSQL-backed catalog storage.
type CraterRepository struct {
	pool *Pool
}

// NewCraterRepository creates a repository on the given pool.
func NewCraterRepository(pool *Pool) *CraterRepository {
	return &CraterRepository{pool: pool}
}

// SaveCatalog records a run and its catalog snapshot in one transaction.
func (r *CraterRepository) SaveCatalog(ctx context.Context, run catalog.Run, craters []crater.Crater) error {
	tx, err := r.pool.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, images, raw_detections, unique_craters)
		VALUES ($1, $2, $3, $4, $5)
	`, run.ID, run.StartedAt, run.Images, run.RawDetections, run.Unique)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO craters (run_id, lon, lat, radius_km, position)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return fmt.Errorf("preparing crater insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range craters {
		pos := pgvector.NewVector([]float32{float32(c.Lon), float32(c.Lat)})
		if _, err := stmt.ExecContext(ctx, run.ID, c.Lon, c.Lat, c.RadiusKm, pos); err != nil {
			return fmt.Errorf("inserting crater: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing catalog: %w", err)
	}
	return nil
}

const latestRunQuery = `SELECT id FROM runs ORDER BY started_at DESC LIMIT 1`

// Craters returns the catalog of the most recent run in insertion order.
func (r *CraterRepository) Craters(ctx context.Context) ([]crater.Crater, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
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
func (r *CraterRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM craters WHERE run_id = (`+latestRunQuery+`)
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting craters: %w", err)
	}
	return n, nil
}

// NearestCraters returns the k stored craters closest to (lon, lat),
// ordered by position distance.
func (r *CraterRepository) NearestCraters(ctx context.Context, lon, lat float64, k int) ([]crater.Crater, error) {
	query := pgvector.NewVector([]float32{float32(lon), float32(lat)})
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT lon, lat, radius_km FROM craters
		WHERE run_id = (`+latestRunQuery+`)
		ORDER BY position <-> $1
		LIMIT $2
	`, query, k)
	if err != nil {
		return nil, fmt.Errorf("querying nearest craters: %w", err)
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
		return nil, fmt.Errorf("iterating nearest craters: %w", err)
	}
	return craters, nil
}
