// Package detect extracts circular crater candidates from model prediction
// surfaces by ring template matching.
package detect

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Surface is a dense prediction map: one probability per pixel, row-major,
// values in [0, 1].
type Surface struct {
	W, H int
	Pix  []float64
}

// NewSurface allocates a zeroed surface.
func NewSurface(w, h int) *Surface {
	return &Surface{W: w, H: h, Pix: make([]float64, w*h)}
}

// At returns the value at (x, y).
func (s *Surface) At(x, y int) float64 {
	return s.Pix[y*s.W+x]
}

// Set stores a value at (x, y).
func (s *Surface) Set(x, y int, v float64) {
	s.Pix[y*s.W+x] = v
}

// ToGray16 renders the surface as a 16-bit grayscale image, clamping values
// to [0, 1]. Used by the on-disk predictions cache.
func (s *Surface) ToGray16() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, s.W, s.H))
	for y := 0; y < s.H; y++ {
		for x := 0; x < s.W; x++ {
			v := s.At(x, y)
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			off := img.PixOffset(x, y)
			u := uint16(math.Round(v * 65535))
			img.Pix[off] = uint8(u >> 8)
			img.Pix[off+1] = uint8(u)
		}
	}
	return img
}

// FromImage converts a decoded image back into a surface, normalizing luma
// to [0, 1].
func FromImage(img image.Image) *Surface {
	b := img.Bounds()
	s := NewSurface(b.Dx(), b.Dy())
	for y := 0; y < s.H; y++ {
		for x := 0; x < s.W; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// RGBA channels are 16-bit; grayscale sources have r==g==b.
			luma := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)
			s.Set(x, y, luma/65535.0)
		}
	}
	return s
}

// Resized returns the surface rescaled to dim x dim. Returns the receiver
// unchanged when it already matches.
func (s *Surface) Resized(dim int) (*Surface, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid surface dimension %d", dim)
	}
	if s.W == dim && s.H == dim {
		return s, nil
	}
	src := s.ToGray16()
	dst := image.NewGray16(image.Rect(0, 0, dim, dim))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return FromImage(dst), nil
}
