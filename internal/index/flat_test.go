package index

import (
	"testing"
)

func TestFlat_SearchOrdersByDistance(t *testing.T) {
	flat := NewFlat(2)
	err := flat.Add(
		[]float32{10, 0}, // distance 10
		[]float32{1, 0},  // distance 1
		[]float32{3, 0},  // distance 3
	)
	if err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	neighbors, err := flat.Search([]float32{0, 0}, 3)
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	if len(neighbors) != 3 {
		t.Fatalf("expected 3 neighbors, got %d", len(neighbors))
	}
	wantOrder := []int{1, 2, 0}
	for i, want := range wantOrder {
		if neighbors[i].Position != want {
			t.Errorf("neighbor %d: expected position %d, got %d", i, want, neighbors[i].Position)
		}
	}
}

func TestFlat_TiesKeepInsertionOrder(t *testing.T) {
	flat := NewFlat(2)
	_ = flat.Add(
		[]float32{0, 1},
		[]float32{1, 0},
		[]float32{0, -1},
	)

	// All three are exactly distance 1 from origin.
	neighbors, err := flat.Search([]float32{0, 0}, 3)
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	for i, n := range neighbors {
		if n.Position != i {
			t.Errorf("expected insertion order preserved at %d, got position %d", i, n.Position)
		}
	}
}

func TestFlat_KLargerThanIndex(t *testing.T) {
	flat := NewFlat(2)
	_ = flat.Add([]float32{1, 1}, []float32{2, 2})

	neighbors, err := flat.Search([]float32{0, 0}, 50)
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	if len(neighbors) != 2 {
		t.Errorf("expected all 2 vectors, got %d", len(neighbors))
	}
}

func TestFlat_DimensionMismatch(t *testing.T) {
	flat := NewFlat(3)
	if err := flat.Add([]float32{1, 2}); err == nil {
		t.Error("expected error adding vector of wrong dimension")
	}
	if _, err := flat.Search([]float32{1, 2}, 1); err == nil {
		t.Error("expected error searching with wrong dimension")
	}
}

func TestFlat_EmptyIndex(t *testing.T) {
	flat := NewFlat(2)
	neighbors, err := flat.Search([]float32{0, 0}, 5)
	if err != nil {
		t.Fatalf("Search() on empty index failed: %v", err)
	}
	if len(neighbors) != 0 {
		t.Errorf("expected no neighbors from empty index, got %d", len(neighbors))
	}
}
