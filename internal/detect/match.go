package detect

import (
	"math"
	"sort"

	"cratercat/internal/crater"
)

// Matcher defaults, calibrated against binarized CNN rim predictions.
const (
	// DefaultMaxRadius caps the template sweep; larger rims than this do
	// not fit usefully inside a single crop.
	DefaultMaxRadius = 40

	// DefaultMatchThresh is the minimum normalized cross-correlation for a
	// ring placement to count as a detection.
	DefaultMatchThresh = 0.5

	// DefaultTargetThresh binarizes the prediction surface before matching.
	DefaultTargetThresh = 0.1

	// defaultRingWidth is the rim template thickness in pixels.
	defaultRingWidth = 2.0

	// Tolerances for collapsing overlapping placements of the same rim
	// across the radius sweep, in pixel units.
	coincidentPos2 = 1.8
	coincidentRad  = 1.0
)

// Matcher finds circular rims in a prediction surface by sweeping ring
// templates over a radius range and keeping well-correlated placements.
type Matcher struct {
	MaxRadius    int
	MatchThresh  float64
	TargetThresh float64
	RingWidth    float64
}

// NewMatcher returns a matcher with the default calibration.
func NewMatcher() *Matcher {
	return &Matcher{
		MaxRadius:    DefaultMaxRadius,
		MatchThresh:  DefaultMatchThresh,
		TargetThresh: DefaultTargetThresh,
		RingWidth:    defaultRingWidth,
	}
}

type scored struct {
	det   crater.PixelDetection
	score float64
}

// Detect returns crater candidates found in the surface with radii in
// [minRadius, MaxRadius]. The minimum radius is a per-image sensitivity
// hint derived from the crop's physical footprint. May return nil when
// nothing correlates above the match threshold.
func (m *Matcher) Detect(s *Surface, minRadius int) []crater.PixelDetection {
	if minRadius < 1 {
		minRadius = 1
	}

	bin := binarize(s, m.TargetThresh)

	var hits []scored
	// TODO: share per-window sums across radii with integral images; the
	// sweep recomputes them per template at the moment.
	for r := minRadius; r <= m.MaxRadius; r++ {
		ring := ringOffsets(r, m.RingWidth)
		if len(ring) == 0 {
			continue
		}
		m.matchRadius(bin, s.W, s.H, r, ring, &hits)
	}

	return m.collapse(hits)
}

// binarize thresholds the surface into a 0/1 grid.
func binarize(s *Surface, thresh float64) []float64 {
	out := make([]float64, len(s.Pix))
	for i, v := range s.Pix {
		if v >= thresh {
			out[i] = 1
		}
	}
	return out
}

// ringOffsets returns the (dx, dy) offsets of a circle rim of the given
// radius and thickness.
func ringOffsets(r int, width float64) [][2]int {
	var offs [][2]int
	rf := float64(r)
	lo, hi := rf-width/2, rf+width/2
	bound := r + int(math.Ceil(width))
	for dy := -bound; dy <= bound; dy++ {
		for dx := -bound; dx <= bound; dx++ {
			d := math.Hypot(float64(dx), float64(dy))
			if d >= lo && d <= hi {
				offs = append(offs, [2]int{dx, dy})
			}
		}
	}
	return offs
}

// matchRadius scans every center position for one template radius and
// appends placements that correlate above the match threshold. The score
// is the on fraction of rim pixels under the ring template.
func (m *Matcher) matchRadius(bin []float64, w, h, r int, ring [][2]int, hits *[]scored) {
	n := float64(len(ring))
	for cy := 0; cy < h; cy++ {
		for cx := 0; cx < w; cx++ {
			var sum float64
			covered := 0
			for _, o := range ring {
				x, y := cx+o[0], cy+o[1]
				if x < 0 || x >= w || y < 0 || y >= h {
					continue
				}
				covered++
				sum += bin[y*w+x]
			}
			// Placements hanging mostly off-image correlate spuriously.
			if float64(covered) < 0.6*n {
				continue
			}
			score := sum / float64(covered)
			if score > m.MatchThresh {
				*hits = append(*hits, scored{
					det:   crater.PixelDetection{X: float64(cx), Y: float64(cy), Radius: float64(r)},
					score: score,
				})
			}
		}
	}
}

// collapse merges placements of the same physical rim: the radius sweep
// fires on several adjacent (center, radius) combinations per crater, and
// only the best-correlated one survives.
func (m *Matcher) collapse(hits []scored) []crater.PixelDetection {
	if len(hits) == 0 {
		return nil
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	var kept []scored
	for _, h := range hits {
		dup := false
		for _, k := range kept {
			minr := math.Min(h.det.Radius, k.det.Radius)
			dx := h.det.X - k.det.X
			dy := h.det.Y - k.det.Y
			if (dx*dx+dy*dy)/(minr*minr) < coincidentPos2 &&
				math.Abs(h.det.Radius-k.det.Radius)/minr < coincidentRad {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, h)
		}
	}

	out := make([]crater.PixelDetection, len(kept))
	for i, k := range kept {
		out[i] = k.det
	}
	return out
}
