package index

import (
	"fmt"
	"sort"

	"github.com/millbrook/policysearch/internal/embedding"
)

// Flat is an exact nearest-neighbor index over dense vectors using L2
// distance. Vectors are scanned linearly; at corpus scale (hundreds to a few
// thousand chunks) this beats any approximate structure on both simplicity
// and recall.
type Flat struct {
	dims    int
	vectors [][]float32
}

// Neighbor is one nearest-neighbor hit, identified by insertion position.
type Neighbor struct {
	Position int
	Distance float32
}

// NewFlat creates an empty flat index for vectors of the given dimension.
func NewFlat(dims int) *Flat {
	return &Flat{dims: dims}
}

// Add appends vectors to the index in insertion order.
func (f *Flat) Add(vecs ...[]float32) error {
	for _, v := range vecs {
		if len(v) != f.dims {
			return fmt.Errorf("vector dimension mismatch: expected %d, got %d", f.dims, len(v))
		}
		f.vectors = append(f.vectors, v)
	}
	return nil
}

// Search returns up to k nearest neighbors of query, ascending by distance.
// Distance ties keep insertion order. k larger than the index returns
// everything.
func (f *Flat) Search(query []float32, k int) ([]Neighbor, error) {
	if len(query) != f.dims {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", f.dims, len(query))
	}
	if k <= 0 || len(f.vectors) == 0 {
		return nil, nil
	}

	neighbors := make([]Neighbor, len(f.vectors))
	for i, v := range f.vectors {
		neighbors[i] = Neighbor{
			Position: i,
			Distance: embedding.L2Distance(query, v),
		}
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})

	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

// Len returns the number of stored vectors.
func (f *Flat) Len() int {
	return len(f.vectors)
}

// Dims returns the vector dimension.
func (f *Flat) Dims() int {
	return f.dims
}

// Vectors exposes the stored vectors for persistence.
func (f *Flat) Vectors() [][]float32 {
	return f.vectors
}
