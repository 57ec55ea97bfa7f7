package detect

import (
	"math"
	"testing"
)

// drawRing paints a rim of the given radius and thickness onto the surface.
func drawRing(s *Surface, cx, cy int, r, width float64) {
	for y := 0; y < s.H; y++ {
		for x := 0; x < s.W; x++ {
			d := math.Hypot(float64(x-cx), float64(y-cy))
			if d >= r-width/2 && d <= r+width/2 {
				s.Set(x, y, 1.0)
			}
		}
	}
}

func TestDetect_SingleRing(t *testing.T) {
	s := NewSurface(64, 64)
	drawRing(s, 32, 32, 10, 2)

	dets := NewMatcher().Detect(s, 5)
	if len(dets) != 1 {
		t.Fatalf("expected 1 detection, got %d: %+v", len(dets), dets)
	}

	d := dets[0]
	if math.Abs(d.X-32) > 2 || math.Abs(d.Y-32) > 2 {
		t.Errorf("expected center near (32, 32), got (%f, %f)", d.X, d.Y)
	}
	if math.Abs(d.Radius-10) > 2 {
		t.Errorf("expected radius near 10, got %f", d.Radius)
	}
}

func TestDetect_TwoSeparatedRings(t *testing.T) {
	s := NewSurface(128, 128)
	drawRing(s, 32, 32, 8, 2)
	drawRing(s, 96, 96, 14, 2)

	dets := NewMatcher().Detect(s, 5)
	if len(dets) != 2 {
		t.Fatalf("expected 2 detections, got %d: %+v", len(dets), dets)
	}

	var small, big int
	for _, d := range dets {
		if math.Abs(d.Radius-8) <= 2 && math.Abs(d.X-32) <= 2 {
			small++
		}
		if math.Abs(d.Radius-14) <= 2 && math.Abs(d.X-96) <= 2 {
			big++
		}
	}
	if small != 1 || big != 1 {
		t.Errorf("expected one small and one big ring, got %+v", dets)
	}
}

func TestDetect_EmptySurface(t *testing.T) {
	s := NewSurface(64, 64)
	if dets := NewMatcher().Detect(s, 5); len(dets) != 0 {
		t.Errorf("expected no detections on empty surface, got %d", len(dets))
	}
}

func TestDetect_MinRadiusFiltersSmallRings(t *testing.T) {
	s := NewSurface(64, 64)
	drawRing(s, 32, 32, 5, 2)

	if dets := NewMatcher().Detect(s, 10); len(dets) != 0 {
		t.Errorf("expected radius-5 ring to fall below min radius 10, got %d detections", len(dets))
	}
}

func TestDetect_ClampsMinRadius(t *testing.T) {
	s := NewSurface(64, 64)
	drawRing(s, 32, 32, 10, 2)

	// Zero and negative hints behave like 1.
	if dets := NewMatcher().Detect(s, 0); len(dets) == 0 {
		t.Error("expected detection with min radius hint 0")
	}
	if dets := NewMatcher().Detect(s, -3); len(dets) == 0 {
		t.Error("expected detection with negative min radius hint")
	}
}

func TestDetect_BelowTargetThreshIgnored(t *testing.T) {
	s := NewSurface(64, 64)
	// Rim well below the binarization threshold.
	for y := 0; y < s.H; y++ {
		for x := 0; x < s.W; x++ {
			d := math.Hypot(float64(x-32), float64(y-32))
			if d >= 9 && d <= 11 {
				s.Set(x, y, 0.05)
			}
		}
	}

	if dets := NewMatcher().Detect(s, 5); len(dets) != 0 {
		t.Errorf("expected sub-threshold rim to be ignored, got %d detections", len(dets))
	}
}

func TestRingOffsets(t *testing.T) {
	offs := ringOffsets(5, 2.0)
	if len(offs) == 0 {
		t.Fatal("expected non-empty ring")
	}
	for _, o := range offs {
		d := math.Hypot(float64(o[0]), float64(o[1]))
		if d < 4.0 || d > 6.0 {
			t.Errorf("offset (%d, %d) at distance %f outside ring band [4, 6]", o[0], o[1], d)
		}
	}
}
