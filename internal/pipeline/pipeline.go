// Package pipeline drives crater extraction end to end: load or regenerate
// model predictions, detect candidates per image, convert them to physical
// coordinates, merge them into the dedup registry, and persist the catalog.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"cratercat/internal/catalog"
	"cratercat/internal/crater"
	"cratercat/internal/dataset"
	"cratercat/internal/detect"
	"cratercat/internal/registry"
	"cratercat/internal/transform"
)

// Sloped minimum-radius hint: small crops scale the detector's minimum
// radius linearly with the crop footprint, large crops use a fixed floor.
const (
	minRadiusCutoffPx = 4000
	minRadiusFloor    = 3
	minRadiusLarge    = 9
)

// MinRadiusHint derives the detector's minimum-radius parameter from the
// image crop's x span in source pixels.
func MinRadiusHint(pixSpan float64) int {
	if pixSpan >= minRadiusCutoffPx {
		return minRadiusLarge
	}
	r := int(3.0/1000.0*pixSpan - 3.0)
	if r < minRadiusFloor {
		return minRadiusFloor
	}
	return r
}

// CandidateProvider extracts pixel-space candidates from one prediction
// surface. It may return zero detections.
type CandidateProvider interface {
	Detect(s *detect.Surface, minRadius int) []crater.PixelDetection
}

// GeometryLookup resolves per-image geometry metadata.
type GeometryLookup interface {
	Geometry(id string) (dataset.ImageGeometry, error)
}

// SurfaceStore loads and saves per-image surfaces.
type SurfaceStore interface {
	Load(n, dim int) ([]*detect.Surface, error)
	Save(surfaces []*detect.Surface) error
}

// SurfaceLoader loads per-image surfaces.
type SurfaceLoader interface {
	Load(n, dim int) ([]*detect.Surface, error)
}

// Predictor generates prediction surfaces from input images.
type Predictor interface {
	Predict(ctx context.Context, images []*detect.Surface, dim int) ([]*detect.Surface, error)
}

// Pipeline holds the collaborators for one extraction run.
type Pipeline struct {
	Images     int
	Dim        int
	Thresholds registry.Thresholds

	Geometry    GeometryLookup
	Provider    CandidateProvider
	Predictions SurfaceStore

	// Recovery path for a missing predictions cache. Either may be nil,
	// in which case a missing cache is fatal.
	Inputs    SurfaceLoader
	Inference Predictor

	// Persist receives the finished catalog. Nil for dry runs.
	Persist catalog.Writer

	// Progress enables the terminal progress bar.
	Progress bool
}

// Result is the outcome of one extraction run.
type Result struct {
	Run     catalog.Run
	Craters []crater.Crater
}

// Extract runs the pipeline over all configured images. Images are
// processed strictly in order: every merge decision depends on the catalog
// state left by earlier images.
func (p *Pipeline) Extract(ctx context.Context) (*Result, error) {
	run := catalog.Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Images:    p.Images,
	}

	surfaces, err := p.loadPredictions(ctx)
	if err != nil {
		return nil, err
	}

	reg := registry.New(p.Thresholds)

	var bar *progressbar.ProgressBar
	if p.Progress {
		bar = progressbar.NewOptions(p.Images,
			progressbar.OptionSetDescription("Extracting craters"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
		)
	}

	for i := 0; i < p.Images; i++ {
		id := dataset.ImageID(i)
		geom, err := p.Geometry.Geometry(id)
		if err != nil {
			return nil, fmt.Errorf("geometry lookup for %s: %w", id, err)
		}

		coords := p.Provider.Detect(surfaces[i], MinRadiusHint(geom.PixSpan()))
		if len(coords) > 0 {
			batch := transform.Transform(coords, geom, p.Dim)
			run.RawDetections += len(coords)
			reg.Merge(batch)
		}

		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		fmt.Println()
	}

	run.Unique = reg.Size()
	craters := reg.Catalog()

	if p.Persist != nil {
		if err := p.Persist.SaveCatalog(ctx, run, craters); err != nil {
			return nil, fmt.Errorf("persisting catalog: %w", err)
		}
	}

	return &Result{Run: run, Craters: craters}, nil
}

// loadPredictions reads the predictions cache, regenerating it through the
// inference collaborator when the cache is missing and regeneration is
// wired. All other load failures propagate.
func (p *Pipeline) loadPredictions(ctx context.Context) ([]*detect.Surface, error) {
	surfaces, err := p.Predictions.Load(p.Images, p.Dim)
	if err == nil {
		return surfaces, nil
	}
	if !errors.Is(err, dataset.ErrMissingSurface) || p.Inputs == nil || p.Inference == nil {
		return nil, fmt.Errorf("loading predictions: %w", err)
	}

	fmt.Println("Predictions cache missing, generating from model...")
	inputs, err := p.Inputs.Load(p.Images, p.Dim)
	if err != nil {
		return nil, fmt.Errorf("loading input images: %w", err)
	}
	surfaces, err = p.Inference.Predict(ctx, inputs, p.Dim)
	if err != nil {
		return nil, fmt.Errorf("generating predictions: %w", err)
	}
	if err := p.Predictions.Save(surfaces); err != nil {
		return nil, fmt.Errorf("saving predictions cache: %w", err)
	}
	fmt.Println("Successfully generated and saved model predictions.")
	return surfaces, nil
}
