package testutil

import (
	"testing"

	"github.com/hupe1980/sparserow/internal/sparse"
	"github.com/stretchr/testify/assert"
)

func TestSparseRow_Sorted(t *testing.T) {
	rng := NewRNG(4711)

	for range 50 {
		row := rng.SparseRow(256, 0.2)
		assert.True(t, sparse.IsSorted(row))
		for _, e := range row {
			assert.NotZero(t, e.Val)
			assert.Less(t, e.Col, sparse.Index(256))
		}
	}
}

func TestSparseRows_Deterministic(t *testing.T) {
	a := NewRNG(7).SparseRows(4, 64, 0.5)
	b := NewRNG(7).SparseRows(4, 64, 0.5)
	assert.Equal(t, a, b)

	rng := NewRNG(7)
	first := rng.SparseRows(4, 64, 0.5)
	rng.Reset()
	assert.Equal(t, first, rng.SparseRows(4, 64, 0.5))
	assert.Equal(t, int64(7), rng.Seed())
}

func TestShuffledRow_HasDuplicate(t *testing.T) {
	rng := NewRNG(1)
	row := rng.ShuffledRow(64, 0.5)

	seen := map[sparse.Index]int{}
	for _, e := range row {
		seen[e.Col]++
	}
	dup := false
	for _, n := range seen {
		if n > 1 {
			dup = true
		}
	}
	assert.True(t, dup)
}

func TestZipf_Range(t *testing.T) {
	rng := NewRNG(3)
	for range 100 {
		v := rng.Zipf(10, 1.5)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 10)
	}
	assert.Equal(t, 0, rng.Zipf(1, 1.0))
}

func TestReferenceDot(t *testing.T) {
	a := []sparse.Entry{{Col: 3, Val: 2}, {Col: 1, Val: 5}}
	b := []sparse.Entry{{Col: 1, Val: 1}, {Col: 3, Val: 4}, {Col: 9, Val: 9}}
	assert.Equal(t, sparse.Scalar(13), ReferenceDot(a, b))
	assert.Zero(t, ReferenceDot(nil, b))
}
