// Package registry implements the incremental crater deduplication engine.
// A Registry accumulates the unique physical-space detections seen so far
// and decides, batch by batch, which new candidates are fresh craters and
// which are duplicate sightings from an overlapping image.
package registry

import "cratercat/internal/crater"

// Thresholds tune duplicate matching sensitivity. Both are squared
// quantities and must be positive.
//
// Position and radius are tested in two independent stages rather than one
// combined metric: "same location, different true crater size" and "same
// crater, slightly different fitted radius" need separately tunable
// sensitivities.
type Thresholds struct {
	// LongLat2 bounds the scale-normalized squared positional difference.
	// The tolerance scales with the candidate's own radius, so a 100 km
	// crater is allowed a far larger positional slop than a 5 km one.
	LongLat2 float64

	// Rad2 bounds the squared fractional radius difference between a
	// candidate and a positionally-near catalog entry.
	Rad2 float64
}

// Registry owns the growing catalog of unique craters. It is not safe for
// concurrent use; the extraction loop is strictly sequential because every
// merge decision depends on the catalog state left by earlier images.
type Registry struct {
	entries []crater.Crater
	thresh  Thresholds
}

// New creates an empty Registry with the given matching thresholds.
func New(thresh Thresholds) *Registry {
	return &Registry{thresh: thresh}
}

// Size returns the number of unique craters accumulated so far.
func (r *Registry) Size() int {
	return len(r.entries)
}

// Catalog returns a copy of the accumulated unique craters in insertion
// order.
func (r *Registry) Catalog() []crater.Crater {
	out := make([]crater.Crater, len(r.entries))
	copy(out, r.entries)
	return out
}

// Merge adds one image's worth of physical-space candidates to the catalog,
// discarding duplicates of existing entries. It returns the number of
// candidates appended.
//
// Each candidate is compared against the catalog snapshot taken at merge
// entry, never against sibling candidates accepted earlier in the same
// batch. Two near-identical detections arriving in one batch are therefore
// both admitted; a single detector pass should not double-fire on the same
// crater, so this is tolerated rather than defended against.
//
// An empty catalog is seeded with the whole batch, no comparisons made.
func (r *Registry) Merge(batch []crater.Crater) int {
	if len(r.entries) == 0 {
		r.entries = append(r.entries, batch...)
		return len(batch)
	}

	snapshot := len(r.entries)
	added := 0
	for _, c := range batch {
		if !r.isDuplicate(c, snapshot) {
			r.entries = append(r.entries, c)
			added++
		}
	}
	return added
}

// isDuplicate reports whether candidate c matches any of the first n
// catalog entries. A match requires passing both stages: the normalized
// positional test and, among positionally-near entries, the fractional
// radius test.
func (r *Registry) isDuplicate(c crater.Crater, n int) bool {
	// Positional tolerance in squared degrees, scaled by the candidate's
	// own physical size.
	norm := c.RadiusKm * crater.KmToDeg
	norm2 := norm * norm

	for _, e := range r.entries[:n] {
		dLon := e.Lon - c.Lon
		dLat := e.Lat - c.Lat
		if (dLon*dLon+dLat*dLat)/norm2 >= r.thresh.LongLat2 {
			continue
		}
		frac := (e.RadiusKm - c.RadiusKm) / c.RadiusKm
		if frac*frac < r.thresh.Rad2 {
			return true
		}
	}
	return false
}
