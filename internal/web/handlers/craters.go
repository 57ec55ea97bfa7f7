package handlers

import (
	"math"
	"net/http"
	"sort"
	"strconv"

	"cratercat/internal/catalog"
	"cratercat/internal/crater"
	"cratercat/internal/index"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
	defaultNearK    = 10
)

// CratersHandler serves catalog queries.
type CratersHandler struct {
	reader catalog.Reader
	idx    *index.SpatialIndex
}

// NewCratersHandler creates a handler over a stored catalog and its
// spatial index.
func NewCratersHandler(reader catalog.Reader, idx *index.SpatialIndex) *CratersHandler {
	return &CratersHandler{reader: reader, idx: idx}
}

// List returns a page of the catalog. Query params: limit, offset.
func (h *CratersHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultPageSize)
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := queryInt(r, "offset", 0)

	craters, err := h.reader.Craters(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read catalog: "+err.Error())
		return
	}

	total := len(craters)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total":   total,
		"offset":  offset,
		"craters": craters[offset:end],
	})
}

type neighborResponse struct {
	Crater      crater.Crater `json:"crater"`
	DistanceDeg float64       `json:"distance_deg"`
}

// Near returns the k catalog craters closest to a point. Query params:
// lon, lat (required, degrees), k.
func (h *CratersHandler) Near(w http.ResponseWriter, r *http.Request) {
	lon, okLon := queryFloat(r, "lon")
	lat, okLat := queryFloat(r, "lat")
	if !okLon || !okLat {
		writeError(w, http.StatusBadRequest, "lon and lat query parameters are required")
		return
	}
	k := queryInt(r, "k", defaultNearK)

	neighbors, err := h.idx.Nearest(lon, lat, k)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "spatial index query failed: "+err.Error())
		return
	}

	out := make([]neighborResponse, len(neighbors))
	for i, n := range neighbors {
		out[i] = neighborResponse{Crater: n.Crater, DistanceDeg: n.Distance}
	}
	writeJSON(w, http.StatusOK, map[string]any{"neighbors": out})
}

// Stats summarizes the stored catalog's radius distribution.
func (h *CratersHandler) Stats(w http.ResponseWriter, r *http.Request) {
	craters, err := h.reader.Craters(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read catalog: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, Summarize(craters))
}

// Summary describes a catalog's radius distribution.
type Summary struct {
	Count          int     `json:"count"`
	MinRadiusKm    float64 `json:"min_radius_km"`
	MaxRadiusKm    float64 `json:"max_radius_km"`
	MeanRadiusKm   float64 `json:"mean_radius_km"`
	MedianRadiusKm float64 `json:"median_radius_km"`
}

// Summarize computes catalog radius statistics.
func Summarize(craters []crater.Crater) Summary {
	s := Summary{Count: len(craters)}
	if len(craters) == 0 {
		return s
	}

	radii := make([]float64, len(craters))
	s.MinRadiusKm = math.Inf(1)
	var sum float64
	for i, c := range craters {
		radii[i] = c.RadiusKm
		sum += c.RadiusKm
		if c.RadiusKm < s.MinRadiusKm {
			s.MinRadiusKm = c.RadiusKm
		}
		if c.RadiusKm > s.MaxRadiusKm {
			s.MaxRadiusKm = c.RadiusKm
		}
	}
	s.MeanRadiusKm = sum / float64(len(radii))

	sort.Float64s(radii)
	n := len(radii)
	if n%2 == 0 {
		s.MedianRadiusKm = (radii[n/2-1] + radii[n/2]) / 2
	} else {
		s.MedianRadiusKm = radii[n/2]
	}
	return s
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return defaultVal
}

func queryFloat(r *http.Request, key string) (float64, bool) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
