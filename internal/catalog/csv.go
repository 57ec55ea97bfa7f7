package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"cratercat/internal/crater"
)

// csv column order of the catalog artifact.
var csvHeader = []string{"lon_deg", "lat_deg", "radius_km"}

// CSVStore reads and writes the catalog as a plain columnar CSV file.
type CSVStore struct {
	Path string
}

// NewCSVStore creates a CSV-backed store at path.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{Path: path}
}

// SaveCatalog writes the catalog to the CSV file, replacing any previous
// content. The run record is not representable in the flat artifact and is
// dropped here; the SQL stores keep it.
func (s *CSVStore) SaveCatalog(_ context.Context, _ Run, craters []crater.Crater) error {
	f, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("creating catalog CSV: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, c := range craters {
		rec := []string{
			strconv.FormatFloat(c.Lon, 'f', -1, 64),
			strconv.FormatFloat(c.Lat, 'f', -1, 64),
			strconv.FormatFloat(c.RadiusKm, 'f', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("writing CSV record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing catalog CSV: %w", err)
	}
	return nil
}

// Craters reads the catalog back from the CSV file.
func (s *CSVStore) Craters(_ context.Context) ([]crater.Crater, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading catalog CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	craters := make([]crater.Crater, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != 3 {
			return nil, fmt.Errorf("catalog CSV row %d: expected 3 columns, got %d", i+2, len(rec))
		}
		var c crater.Crater
		if c.Lon, err = strconv.ParseFloat(rec[0], 64); err != nil {
			return nil, fmt.Errorf("catalog CSV row %d: bad longitude: %w", i+2, err)
		}
		if c.Lat, err = strconv.ParseFloat(rec[1], 64); err != nil {
			return nil, fmt.Errorf("catalog CSV row %d: bad latitude: %w", i+2, err)
		}
		if c.RadiusKm, err = strconv.ParseFloat(rec[2], 64); err != nil {
			return nil, fmt.Errorf("catalog CSV row %d: bad radius: %w", i+2, err)
		}
		craters = append(craters, c)
	}
	return craters, nil
}

// Count returns the number of craters in the CSV file.
func (s *CSVStore) Count(ctx context.Context) (int64, error) {
	craters, err := s.Craters(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(craters)), nil
}

// multiWriter fans one catalog out to several writers.
type multiWriter []Writer

// MultiWriter returns a Writer that persists the catalog to every
// non-nil writer in order, stopping at the first error.
func MultiWriter(writers ...Writer) Writer {
	var ws multiWriter
	for _, w := range writers {
		if w != nil {
			ws = append(ws, w)
		}
	}
	return ws
}

func (ws multiWriter) SaveCatalog(ctx context.Context, run Run, craters []crater.Crater) error {
	for _, w := range ws {
		if err := w.SaveCatalog(ctx, run, craters); err != nil {
			return err
		}
	}
	return nil
}
