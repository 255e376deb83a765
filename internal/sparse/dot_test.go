package sparse_test

import (
	"testing"

	"github.com/hupe1980/sparserow/internal/sparse"
	"github.com/hupe1980/sparserow/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ones(cols ...sparse.Index) []sparse.Entry {
	out := make([]sparse.Entry, len(cols))
	for i, c := range cols {
		out[i] = sparse.Entry{Col: c, Val: 1}
	}
	return out
}

var (
	evenRow = ones(0, 3, 5, 7, 12, 14, 27, 31)
	oddRow  = ones(1, 7, 10, 14, 18, 27, 28)
)

func TestDot_SharedColumns(t *testing.T) {
	// Shared columns 7, 14 and 27.
	assert.Equal(t, sparse.Scalar(3), sparse.Dot(evenRow, oddRow))
}

func TestDot_Table(t *testing.T) {
	tests := []struct {
		name string
		a, b []sparse.Entry
		want sparse.Scalar
	}{
		{"both empty", nil, nil, 0},
		{"left empty", nil, oddRow, 0},
		{"right empty", evenRow, nil, 0},
		{"disjoint", ones(0, 2, 4), ones(1, 3, 5), 0},
		{"identical", evenRow, evenRow, 8},
		{"weighted", []sparse.Entry{{Col: 2, Val: 3}, {Col: 9, Val: -2}}, []sparse.Entry{{Col: 2, Val: 4}, {Col: 9, Val: 5}}, 2},
		{"tail overlap", ones(0, 1, 2, 100), ones(100), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sparse.Dot(tt.a, tt.b))
		})
	}
}

func TestDot_SymmetryAndReference(t *testing.T) {
	rng := testutil.NewRNG(42)

	for range 200 {
		a := rng.SparseRow(512, 0.1)
		b := rng.SparseRow(512, 0.1)

		ab := sparse.Dot(a, b)
		assert.Equal(t, ab, sparse.Dot(b, a))
		assert.Equal(t, testutil.ReferenceDot(a, b), ab)
	}
}

func TestDotScratch_MatchesDirect(t *testing.T) {
	rng := testutil.NewRNG(99)
	scratch := make([]sparse.Entry, 1024)

	for range 100 {
		a := rng.SparseRow(1024, 0.05)
		b := rng.SparseRow(1024, 0.05)
		assert.Equal(t, sparse.Dot(a, b), sparse.DotScratch(a, b, scratch))
	}
	assert.Equal(t, sparse.Scalar(3), sparse.DotScratch(evenRow, oddRow, scratch))
}

func TestIsSorted(t *testing.T) {
	assert.True(t, sparse.IsSorted(nil))
	assert.True(t, sparse.IsSorted(evenRow))
	assert.False(t, sparse.IsSorted(ones(1, 1)))
	assert.False(t, sparse.IsSorted(ones(3, 2)))
}

func TestNormalize(t *testing.T) {
	in := []sparse.Entry{{Col: 5, Val: 1}, {Col: 2, Val: 2}, {Col: 5, Val: 3}, {Col: 0, Val: 1}}
	got := sparse.Normalize(in)

	require.True(t, sparse.IsSorted(got))
	assert.Equal(t, []sparse.Entry{{Col: 0, Val: 1}, {Col: 2, Val: 2}, {Col: 5, Val: 4}}, got)

	rng := testutil.NewRNG(5)
	for range 50 {
		shuffled := rng.ShuffledRow(128, 0.3)
		other := rng.SparseRow(128, 0.3)
		want := testutil.ReferenceDot(shuffled, other)

		norm := sparse.Normalize(shuffled)
		assert.True(t, sparse.IsSorted(norm))
		assert.Equal(t, want, sparse.Dot(norm, other))
	}
}

func TestRow(t *testing.T) {
	var r sparse.Row
	_, ok := r.Last()
	assert.False(t, ok)
	assert.Zero(t, r.Len())

	r.Append(evenRow[:4]...)
	r.Append(evenRow[4:]...)
	assert.Equal(t, evenRow, r.Entries())

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, sparse.Index(31), last.Col)

	o := sparse.NewRow(oddRow...)
	assert.Equal(t, sparse.Scalar(3), r.Dot(&o))

	r.Reset()
	assert.Zero(t, r.Len())
	assert.Equal(t, 16, sparse.EntrySize)
}

func BenchmarkDot(b *testing.B) {
	rng := testutil.NewRNG(1)
	x := rng.SparseRow(1<<14, 0.05)
	y := rng.SparseRow(1<<14, 0.05)

	b.ReportAllocs()
	for b.Loop() {
		_ = sparse.Dot(x, y)
	}
}

func BenchmarkDotScratch(b *testing.B) {
	rng := testutil.NewRNG(1)
	x := rng.SparseRow(1<<14, 0.05)
	y := rng.SparseRow(1<<14, 0.05)
	scratch := make([]sparse.Entry, len(y))

	b.ReportAllocs()
	for b.Loop() {
		_ = sparse.DotScratch(x, y, scratch)
	}
}
