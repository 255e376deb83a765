package sched

import (
	"sync"

	"github.com/hupe1980/sparserow/internal/partition"
)

// Placer moves the calling goroutine onto a partition.
//
// Enter is called from the unit's own goroutine before the unit body runs.
// The returned leave func is called after the body returns (or panics).
// Implementations must be safe for concurrent use.
type Placer interface {
	Enter(p partition.ID) (leave func(), honored bool)
}

func noop() {}

// IgnoreHints is a Placer that never moves anything.
type IgnoreHints struct{}

// Enter implements Placer.
func (IgnoreHints) Enter(partition.ID) (func(), bool) {
	return noop, false
}

// Recorder wraps a Placer and counts Enter calls per partition.
type Recorder struct {
	inner Placer

	mu      sync.Mutex
	entered map[partition.ID]int
	honored int
}

// NewRecorder wraps inner. A nil inner ignores all hints.
func NewRecorder(inner Placer) *Recorder {
	if inner == nil {
		inner = IgnoreHints{}
	}
	return &Recorder{inner: inner, entered: make(map[partition.ID]int)}
}

// Enter implements Placer.
func (r *Recorder) Enter(p partition.ID) (func(), bool) {
	leave, ok := r.inner.Enter(p)

	r.mu.Lock()
	r.entered[p]++
	if ok {
		r.honored++
	}
	r.mu.Unlock()

	return leave, ok
}

// Entered returns how many units were hinted to p.
func (r *Recorder) Entered(p partition.ID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entered[p]
}

// Total returns the number of hinted units and how many hints were honored.
func (r *Recorder) Total() (hinted, honored int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.entered {
		hinted += n
	}
	return hinted, r.honored
}

// Reset clears all counters.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.entered)
	r.honored = 0
}
