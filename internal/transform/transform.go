// Package transform converts pixel-space crater candidates into
// selenographic coordinates using per-image geometry metadata.
//
// The conversion is a first-order inverse-orthographic approximation. For
// images cut from ~6000 px crops of the LROC-Kaguya DEM it stays within
// ~0.4 deg latitude and ~0.2 deg longitude of the exact inverse transform;
// larger crops need the exact math.
package transform

import (
	"math"

	"cratercat/internal/crater"
	"cratercat/internal/dataset"
)

// PixPerKm returns the pixel-to-kilometer scale of an image: how many
// pixels cover one kilometer on the surface. latSpan is the latitude
// extent of the image in degrees, distortion the per-image projection
// correction.
func PixPerKm(dim int, latSpan, distortion float64) float64 {
	return (180.0 / math.Pi) * float64(dim) * distortion / (latSpan * crater.MoonRadiusKm)
}

// Transform converts candidates detected in one image to physical
// coordinates, preserving order. dim is the image side length in pixels;
// candidates are referenced to that grid with the image center at
// (dim/2, dim/2).
//
// The latitude span drives the degrees-per-pixel term for both axes,
// including longitude. That asymmetry is part of the approximation the
// catalog is calibrated against, not an oversight.
//
// Pure arithmetic: the caller guarantees dim > 0 and populated geometry.
// Near the poles the cos(lat) division is numerically unstable and results
// are unreliable; candidates with radius 0 produce infinities downstream.
func Transform(dets []crater.PixelDetection, geom dataset.ImageGeometry, dim int) []crater.Crater {
	pixPerKm := PixPerKm(dim, geom.LatMax-geom.LatMin, geom.Distortion)
	degPerPix := (geom.LatMax - geom.LatMin) / float64(dim) / geom.Distortion
	lonCenter := 0.5 * (geom.LonMin + geom.LonMax)
	latCenter := 0.5 * (geom.LatMin + geom.LatMax)
	half := float64(dim) / 2

	out := make([]crater.Crater, len(dets))
	for i, d := range dets {
		lat := latCenter - degPerPix*(d.Y-half)
		lon := lonCenter + degPerPix*(d.X-half)/math.Cos(math.Pi*lat/180.0)
		out[i] = crater.Crater{
			Lon:      lon,
			Lat:      lat,
			RadiusKm: d.Radius / pixPerKm,
		}
	}
	return out
}
