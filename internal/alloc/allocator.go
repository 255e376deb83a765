package alloc

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/hupe1980/sparserow/internal/partition"
	"github.com/hupe1980/sparserow/internal/resource"
)

// ErrAllocationFailed is returned when a partition's storage cannot be reserved.
var ErrAllocationFailed = errors.New("alloc: allocation failed")

// Allocator accounts the bytes of per-partition arrays.
//
// Reserve is called from a unit hinted to p before the array is made.
// Release is called once per successful Reserve.
type Allocator interface {
	Reserve(ctx context.Context, p partition.ID, bytes int64) error
	Release(p partition.ID, bytes int64)
}

// ControllerAllocator charges reservations against a resource.Controller
// and keeps a per-partition usage count.
type ControllerAllocator struct {
	ctl  *resource.Controller
	used []atomic.Int64
}

// NewControllerAllocator returns an allocator for layout. A nil controller
// only tracks usage.
func NewControllerAllocator(ctl *resource.Controller, layout partition.Layout) *ControllerAllocator {
	return &ControllerAllocator{
		ctl:  ctl,
		used: make([]atomic.Int64, layout.Partitions()),
	}
}

// Reserve implements Allocator.
func (a *ControllerAllocator) Reserve(ctx context.Context, p partition.ID, bytes int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := a.ctl.TryAcquireMemory(bytes); err != nil {
		return err
	}

	a.used[p].Add(bytes)
	return nil
}

// Release implements Allocator.
func (a *ControllerAllocator) Release(p partition.ID, bytes int64) {
	a.ctl.ReleaseMemory(bytes)
	a.used[p].Add(-bytes)
}

// Usage returns the bytes currently reserved on p.
func (a *ControllerAllocator) Usage(p partition.ID) int64 {
	return a.used[p].Load()
}

// Total returns the bytes currently reserved on all partitions.
func (a *ControllerAllocator) Total() int64 {
	var n int64
	for i := range a.used {
		n += a.used[i].Load()
	}
	return n
}
