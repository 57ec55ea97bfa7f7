// Package crater defines the detection records shared by the extraction
// pipeline: circular candidates in pixel space and craters in physical
// (selenographic) coordinates.
package crater

import "math"

// MoonRadiusKm is the mean radius of the Moon.
const MoonRadiusKm = 1737.4

// KmToDeg converts a kilometer length on the lunar surface to the
// equivalent angular span in degrees.
const KmToDeg = 180.0 / (math.Pi * MoonRadiusKm)

// PixelDetection is a circular candidate in the pixel frame of a single
// source image. Coordinates are relative to that image's crop only.
type PixelDetection struct {
	X      float64 // column, pixels
	Y      float64 // row, pixels
	Radius float64 // pixels
}

// Crater is a detection in physical coordinates, meaningful globally.
// RadiusKm is always positive; longitude and latitude are finite degrees
// with no wraparound handling.
type Crater struct {
	Lon      float64 `json:"lon"`
	Lat      float64 `json:"lat"`
	RadiusKm float64 `json:"radius_km"`
}
