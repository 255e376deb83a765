package alloc

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/hupe1980/sparserow/internal/partition"
)

var (
	// ErrLeak is reported by Tracker.Verify for reservations never released.
	ErrLeak = errors.New("alloc: reservation not released")
	// ErrDoubleRelease is reported by Tracker.Verify for releases without a
	// matching reservation.
	ErrDoubleRelease = errors.New("alloc: release without reservation")
	// ErrInjected is the default failure of Tracker.FailOn.
	ErrInjected = errors.New("alloc: injected failure")
)

// Tracker is an Allocator that records every reservation and release.
// It is meant for tests.
type Tracker struct {
	mu       sync.Mutex
	reserves map[partition.ID]int
	releases map[partition.ID]int
	bytes    map[partition.ID]int64
	failOn   map[partition.ID]error
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		reserves: make(map[partition.ID]int),
		releases: make(map[partition.ID]int),
		bytes:    make(map[partition.ID]int64),
		failOn:   make(map[partition.ID]error),
	}
}

// FailOn makes every reservation on p fail with err (ErrInjected if nil).
func (t *Tracker) FailOn(p partition.ID, err error) {
	if err == nil {
		err = ErrInjected
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.failOn[p] = err
}

// Reserve implements Allocator.
func (t *Tracker) Reserve(_ context.Context, p partition.ID, bytes int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err, ok := t.failOn[p]; ok {
		return err
	}

	t.reserves[p]++
	t.bytes[p] += bytes
	return nil
}

// Release implements Allocator.
func (t *Tracker) Release(p partition.ID, bytes int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.releases[p]++
	t.bytes[p] -= bytes
}

// Reserves returns the number of successful reservations on p.
func (t *Tracker) Reserves(p partition.ID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reserves[p]
}

// Releases returns the number of releases on p.
func (t *Tracker) Releases(p partition.ID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.releases[p]
}

// Outstanding returns the bytes reserved and not yet released.
func (t *Tracker) Outstanding() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var n int64
	for _, b := range t.bytes {
		n += b
	}
	return n
}

// Verify reports every partition whose reservations and releases differ.
func (t *Tracker) Verify() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	parts := make([]partition.ID, 0, len(t.reserves)+len(t.releases))
	for p := range t.reserves {
		parts = append(parts, p)
	}
	for p := range t.releases {
		if _, ok := t.reserves[p]; !ok {
			parts = append(parts, p)
		}
	}
	slices.Sort(parts)

	var errs []error
	for _, p := range parts {
		switch res, rel := t.reserves[p], t.releases[p]; {
		case res > rel:
			errs = append(errs, fmt.Errorf("%w: partition %d reserved %d released %d", ErrLeak, p, res, rel))
		case rel > res:
			errs = append(errs, fmt.Errorf("%w: partition %d reserved %d released %d", ErrDoubleRelease, p, res, rel))
		}
	}
	return errors.Join(errs...)
}
