package dataset

import (
	"errors"
	"fmt"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"

	"cratercat/internal/detect"
)

// ErrMissingSurface is returned when a surface directory does not hold an
// entry for a requested image. For the predictions cache the pipeline
// treats this as recoverable and regenerates the cache through the
// inference client.
var ErrMissingSurface = errors.New("surface missing from directory")

// SurfaceDir stores one surface per image as a 16-bit grayscale PNG in a
// flat directory, named by image identifier. It backs both the model input
// images and the predictions cache.
type SurfaceDir struct {
	dir string
}

// NewSurfaceDir creates a surface directory handle rooted at dir. The
// directory is created on first save, not here.
func NewSurfaceDir(dir string) *SurfaceDir {
	return &SurfaceDir{dir: dir}
}

func (d *SurfaceDir) path(id string) string {
	return filepath.Join(d.dir, id+".png")
}

// Load reads the surfaces for images [0, n), rescaled to dim when a stored
// surface has a different size. Returns ErrMissingSurface when any image
// is absent.
func (d *SurfaceDir) Load(n, dim int) ([]*detect.Surface, error) {
	surfaces := make([]*detect.Surface, n)
	for i := 0; i < n; i++ {
		id := ImageID(i)
		f, err := os.Open(d.path(id))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrMissingSurface, id)
			}
			return nil, fmt.Errorf("opening surface %s: %w", id, err)
		}

		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("decoding surface %s: %w", id, err)
		}

		s, err := detect.FromImage(img).Resized(dim)
		if err != nil {
			return nil, fmt.Errorf("rescaling surface %s: %w", id, err)
		}
		surfaces[i] = s
	}
	return surfaces, nil
}

// Save writes surfaces to the directory, one PNG per image in index order.
func (d *SurfaceDir) Save(surfaces []*detect.Surface) error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("creating surface directory: %w", err)
	}
	for i, s := range surfaces {
		id := ImageID(i)
		f, err := os.Create(d.path(id))
		if err != nil {
			return fmt.Errorf("creating surface %s: %w", id, err)
		}
		if err := png.Encode(f, s.ToGray16()); err != nil {
			f.Close()
			return fmt.Errorf("encoding surface %s: %w", id, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("writing surface %s: %w", id, err)
		}
	}
	return nil
}
