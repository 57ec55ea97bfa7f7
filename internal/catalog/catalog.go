// Package catalog persists the deduplicated crater set. The CSV writer
// produces the final columnar artifact; the sqlite and postgres
// subpackages keep queryable stores with per-run bookkeeping.
package catalog

import (
	"context"
	"time"

	"cratercat/internal/crater"
)

// Run records one extraction pipeline invocation.
type Run struct {
	ID            string
	StartedAt     time.Time
	Images        int // images processed
	RawDetections int // total candidates matched before deduplication
	Unique        int // catalog size after the run
}

// Writer persists a finished catalog together with its run record.
type Writer interface {
	SaveCatalog(ctx context.Context, run Run, craters []crater.Crater) error
}

// Reader serves a stored catalog to the query commands and the web API.
type Reader interface {
	Craters(ctx context.Context) ([]crater.Crater, error)
	Count(ctx context.Context) (int64, error)
}
