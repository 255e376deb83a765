package alloc

import (
	"context"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/hupe1980/sparserow/internal/partition"
	"github.com/hupe1980/sparserow/internal/sched"
)

// Block holds P arrays of rowsPerPartition elements, array p living on
// partition p.
type Block[T any] struct {
	layout           partition.Layout
	rowsPerPartition int
	elemSize         int
	arrays           [][]T
	allocator        Allocator
	released         atomic.Bool
}

// New reserves and makes one array per partition. Each array is made by a
// unit hinted to its partition. If any reservation fails, the arrays already
// reserved are released and the error wraps ErrAllocationFailed.
func New[T any](ctx context.Context, s *sched.Scheduler, rowsPerPartition int, a Allocator) (*Block[T], error) {
	if rowsPerPartition < 0 {
		return nil, fmt.Errorf("%w: negative rows per partition %d", ErrAllocationFailed, rowsPerPartition)
	}

	var zero T
	layout := s.Layout()
	b := &Block[T]{
		layout:           layout,
		rowsPerPartition: rowsPerPartition,
		elemSize:         int(unsafe.Sizeof(zero)),
		arrays:           make([][]T, layout.Partitions()),
		allocator:        a,
	}

	bytes := b.arrayBytes()
	reserved := make([]bool, layout.Partitions())

	g := s.Fork(ctx)
	for p := range partition.ID(layout.Partitions()) {
		g.Submit(p, func(ctx context.Context) error {
			if err := a.Reserve(ctx, p, bytes); err != nil {
				return fmt.Errorf("%w: partition %d: %w", ErrAllocationFailed, p, err)
			}
			reserved[p] = true
			b.arrays[p] = make([]T, rowsPerPartition)
			return nil
		})
	}

	if err := g.Join(); err != nil {
		for p, ok := range reserved {
			if ok {
				a.Release(partition.ID(p), bytes)
			}
		}
		return nil, err
	}

	return b, nil
}

func (b *Block[T]) arrayBytes() int64 {
	return int64(b.rowsPerPartition) * int64(b.elemSize)
}

// ArrayOf returns partition p's array. It is nil after Release.
func (b *Block[T]) ArrayOf(p partition.ID) []T {
	return b.arrays[p]
}

// Layout returns the partition layout of the block.
func (b *Block[T]) Layout() partition.Layout {
	return b.layout
}

// Partitions returns the number of arrays.
func (b *Block[T]) Partitions() int {
	return b.layout.Partitions()
}

// RowsPerPartition returns the length of every array.
func (b *Block[T]) RowsPerPartition() int {
	return b.rowsPerPartition
}

// ElemSize returns the size of one element in bytes.
func (b *Block[T]) ElemSize() int {
	return b.elemSize
}

// Bytes returns the bytes reserved across all partitions.
func (b *Block[T]) Bytes() int64 {
	return b.arrayBytes() * int64(b.layout.Partitions())
}

// Release returns every array to the allocator. Only the first call has an
// effect; it reports whether it released anything.
func (b *Block[T]) Release() bool {
	if b.released.Swap(true) {
		return false
	}

	bytes := b.arrayBytes()
	for p := range b.arrays {
		b.allocator.Release(partition.ID(p), bytes)
		b.arrays[p] = nil
	}
	return true
}
