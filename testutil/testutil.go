package testutil

import (
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/sparserow/internal/sparse"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// SparseRow returns entries over columns [0, maxCol) where each column is
// present with probability density. Columns are strictly increasing and
// values are in [-8, 8] excluding 0.
func (r *RNG) SparseRow(maxCol int, density float64) []sparse.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sparseRowLocked(maxCol, density)
}

func (r *RNG) sparseRowLocked(maxCol int, density float64) []sparse.Entry {
	out := make([]sparse.Entry, 0, int(float64(maxCol)*density)+1)
	for col := 0; col < maxCol; col++ {
		if r.rand.Float64() >= density {
			continue
		}
		val := sparse.Scalar(r.rand.Intn(16)) - 8
		if val >= 0 {
			val++
		}
		out = append(out, sparse.Entry{Col: sparse.Index(col), Val: val})
	}
	return out
}

// SparseRows returns n independent rows, see SparseRow.
func (r *RNG) SparseRows(n, maxCol int, density float64) [][]sparse.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([][]sparse.Entry, n)
	for i := range rows {
		rows[i] = r.sparseRowLocked(maxCol, density)
	}
	return rows
}

// ShuffledRow returns SparseRow with its entries permuted and a duplicate
// column appended, for exercising sort/dedup paths.
func (r *RNG) ShuffledRow(maxCol int, density float64) []sparse.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := r.sparseRowLocked(maxCol, density)
	if len(row) > 0 {
		row = append(row, sparse.Entry{Col: row[0].Col, Val: 1})
	}
	r.rand.Shuffle(len(row), func(i, j int) { row[i], row[j] = row[j], row[i] })
	return row
}

// Zipf returns a Zipfian-distributed value in [0, n).
// s=1.0 gives standard Zipf, s=1.5 gives a heavy tail.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// ReferenceDot computes the dot product through a column map. It does not
// depend on input order and serves as ground truth for the merge.
func ReferenceDot(a, b []sparse.Entry) sparse.Scalar {
	cols := make(map[sparse.Index]sparse.Scalar, len(a))
	for _, e := range a {
		cols[e.Col] += e.Val
	}
	var sum sparse.Scalar
	for _, e := range b {
		sum += cols[e.Col] * e.Val
	}
	return sum
}
