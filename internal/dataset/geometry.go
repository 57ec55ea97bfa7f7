// Package dataset provides the per-image metadata and cached model
// predictions that feed the extraction pipeline. Geometry records are
// immutable and keyed by image identifier.
package dataset

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrUnknownImage is returned when a geometry lookup misses.
var ErrUnknownImage = errors.New("unknown image id")

// ImageGeometry holds the metadata needed to place one image's detections
// on the surface: a longitude/latitude bounding box, the pixel footprint of
// the crop within the source DEM, and a projection distortion coefficient.
type ImageGeometry struct {
	LonMin float64
	LonMax float64
	LatMin float64
	LatMax float64

	// Pixel bounds of the crop in the source mosaic: x0, y0, x1, y1.
	// Only the x span is consumed (detection sensitivity scaling).
	PixBounds [4]float64

	Distortion float64
}

// PixSpan returns the x extent of the crop footprint in source pixels.
func (g ImageGeometry) PixSpan() float64 {
	return g.PixBounds[2] - g.PixBounds[0]
}

// ImageID formats the canonical identifier for the i-th image of a set.
func ImageID(i int) string {
	return fmt.Sprintf("img_%05d", i)
}

// GeometryTable is an in-memory geometry lookup loaded from a YAML file.
type GeometryTable struct {
	images map[string]ImageGeometry
}

type geometryFile struct {
	Images map[string]geometryEntry `yaml:"images"`
}

type geometryEntry struct {
	LongLatBounds []float64 `yaml:"longlat_bounds"`
	PixBounds     []float64 `yaml:"pix_bounds"`
	Distortion    float64   `yaml:"distortion"`
}

// LoadGeometryTable reads a geometry table from a YAML file.
func LoadGeometryTable(path string) (*GeometryTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading geometry table: %w", err)
	}
	return ParseGeometryTable(data)
}

// ParseGeometryTable parses geometry table YAML.
func ParseGeometryTable(data []byte) (*GeometryTable, error) {
	var file geometryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing geometry table: %w", err)
	}

	images := make(map[string]ImageGeometry, len(file.Images))
	for id, e := range file.Images {
		if len(e.LongLatBounds) != 4 {
			return nil, fmt.Errorf("image %s: longlat_bounds must have 4 entries, got %d", id, len(e.LongLatBounds))
		}
		if len(e.PixBounds) != 4 {
			return nil, fmt.Errorf("image %s: pix_bounds must have 4 entries, got %d", id, len(e.PixBounds))
		}
		if e.Distortion == 0 {
			return nil, fmt.Errorf("image %s: distortion coefficient is required", id)
		}
		g := ImageGeometry{
			LonMin:     e.LongLatBounds[0],
			LonMax:     e.LongLatBounds[1],
			LatMin:     e.LongLatBounds[2],
			LatMax:     e.LongLatBounds[3],
			Distortion: e.Distortion,
		}
		copy(g.PixBounds[:], e.PixBounds)
		images[id] = g
	}

	return &GeometryTable{images: images}, nil
}

// Geometry returns the metadata for an image identifier.
func (t *GeometryTable) Geometry(id string) (ImageGeometry, error) {
	g, ok := t.images[id]
	if !ok {
		return ImageGeometry{}, fmt.Errorf("%w: %s", ErrUnknownImage, id)
	}
	return g, nil
}

// Count returns the number of images in the table.
func (t *GeometryTable) Count() int {
	return len(t.images)
}
