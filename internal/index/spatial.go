// Package index provides an in-memory spatial index over the crater
// catalog for nearest-crater queries.
package index

import (
	"errors"
	"math"
	"sync"

	"github.com/coder/hnsw"

	"cratercat/internal/crater"
)

// maxNeighbors is the HNSW M parameter.
const maxNeighbors = 16

// Neighbor is one nearest-crater result.
type Neighbor struct {
	Crater   crater.Crater
	Distance float64 // Euclidean degrees in the (lon, lat) plane
}

// SpatialIndex is an HNSW graph over catalog positions, keyed by catalog
// insertion order.
type SpatialIndex struct {
	mu       sync.RWMutex
	graph    *hnsw.Graph[int64]
	idCrater map[int64]crater.Crater
}

// New creates an empty spatial index.
func New() *SpatialIndex {
	return &SpatialIndex{idCrater: make(map[int64]crater.Crater)}
}

// Build populates the index from a catalog slice, replacing any previous
// contents.
func (idx *SpatialIndex) Build(craters []crater.Crater) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	g := hnsw.NewGraph[int64]()
	g.M = maxNeighbors
	g.Ml = 1.0 / float64(maxNeighbors)
	g.Distance = hnsw.EuclideanDistance

	idx.idCrater = make(map[int64]crater.Crater, len(craters))
	for i, c := range craters {
		id := int64(i)
		g.Add(hnsw.MakeNode(id, []float32{float32(c.Lon), float32(c.Lat)}))
		idx.idCrater[id] = c
	}
	idx.graph = g
}

// Count returns the number of indexed craters.
func (idx *SpatialIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.idCrater)
}

// Nearest returns up to k craters closest to (lon, lat).
func (idx *SpatialIndex) Nearest(lon, lat float64, k int) ([]Neighbor, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.graph == nil {
		return nil, errors.New("index not initialized")
	}

	query := []float32{float32(lon), float32(lat)}
	nodes := idx.graph.Search(query, k)

	neighbors := make([]Neighbor, 0, len(nodes))
	for _, n := range nodes {
		c, ok := idx.idCrater[n.Key]
		if !ok {
			continue
		}
		dLon := c.Lon - lon
		dLat := c.Lat - lat
		neighbors = append(neighbors, Neighbor{
			Crater:   c,
			Distance: math.Hypot(dLon, dLat),
		})
	}
	return neighbors, nil
}
