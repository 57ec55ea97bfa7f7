package cmd

import (
	"fmt"

	"cratercat/internal/catalog"
	"cratercat/internal/catalog/postgres"
	"cratercat/internal/catalog/sqlite"
	"cratercat/internal/config"
)

// openReader opens the named catalog store for reading. The returned
// cleanup function is always safe to call.
func openReader(cfg *config.Config, store string) (catalog.Reader, func(), error) {
	switch store {
	case "sqlite":
		s, err := sqlite.Open(cfg.Catalog.SQLitePath)
		if err != nil {
			return nil, func() {}, err
		}
		return s, func() { s.Close() }, nil
	case "postgres":
		pool, err := postgres.Open(&cfg.Catalog)
		if err != nil {
			return nil, func() {}, err
		}
		return postgres.NewCraterRepository(pool), func() { pool.Close() }, nil
	case "csv":
		return catalog.NewCSVStore(cfg.Catalog.CSVPath), func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown store %q (want sqlite, postgres or csv)", store)
	}
}

// openWriter opens the named catalog store for writing. Store "none"
// returns a nil writer.
func openWriter(cfg *config.Config, store string) (catalog.Writer, func(), error) {
	if store == "none" {
		return nil, func() {}, nil
	}
	r, cleanup, err := openReader(cfg, store)
	if err != nil {
		return nil, cleanup, err
	}
	w, ok := r.(catalog.Writer)
	if !ok {
		return nil, cleanup, fmt.Errorf("store %q is not writable", store)
	}
	return w, cleanup, nil
}
