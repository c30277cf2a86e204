package index

import (
	"fmt"
	"sort"

	"docquery/internal/domain"
)

// Entry pairs a chunk id with its embedding vector.
type Entry struct {
	ChunkID string
	Values  []float64
}

// Hit is a single search result: the chunk id and its squared Euclidean
// distance to the query vector.
type Hit struct {
	ChunkID  string
	Distance float64
}

// Flat is a brute-force nearest-neighbor index over squared Euclidean
// distance. It is built fresh from a snapshot of a single user's vectors and
// discarded after the query, so it never mixes tenants and never goes stale.
type Flat struct {
	entries   []Entry
	dimension int
}

// Build creates an index over the entries in the order given. All vectors
// must share the same dimensionality.
func Build(entries []Entry) (*Flat, error) {
	idx := &Flat{entries: entries}
	if len(entries) == 0 {
		return idx, nil
	}
	idx.dimension = len(entries[0].Values)
	for i, e := range entries {
		if len(e.Values) != idx.dimension {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, index has %d",
				domain.ErrInvalidConfig, i, len(e.Values), idx.dimension)
		}
	}
	return idx, nil
}

// Len returns the number of indexed vectors.
func (f *Flat) Len() int { return len(f.entries) }

// Search returns up to k hits ordered by ascending distance. Ties keep the
// order the vectors were added in. k is clamped to the number of entries; an
// empty index returns an empty result.
func (f *Flat) Search(query []float64, k int) ([]Hit, error) {
	if len(f.entries) == 0 {
		return nil, nil
	}
	if len(query) != f.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			domain.ErrInvalidConfig, len(query), f.dimension)
	}
	hits := make([]Hit, len(f.entries))
	for i, e := range f.entries {
		hits[i] = Hit{ChunkID: e.ChunkID, Distance: sqDist(e.Values, query)}
	}
	// Stable sort keeps insertion order among equal distances.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if k < 0 {
		k = 0
	}
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func sqDist(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
