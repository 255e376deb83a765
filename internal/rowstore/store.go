package rowstore

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/sparserow/internal/alloc"
	"github.com/hupe1980/sparserow/internal/conv"
	"github.com/hupe1980/sparserow/internal/partition"
	"github.com/hupe1980/sparserow/internal/sched"
	"github.com/hupe1980/sparserow/internal/sparse"
)

var (
	// ErrUnsortedEntries is returned in validation mode for entries that are
	// not strictly increasing, or that do not follow the row's last column.
	ErrUnsortedEntries = errors.New("rowstore: entries not strictly increasing")
	// ErrRowAlreadyWritten is returned in validation mode for a second append
	// to the same row.
	ErrRowAlreadyWritten = errors.New("rowstore: row already written")
	// ErrTooManyRows is returned when the row count cannot be addressed.
	ErrTooManyRows = errors.New("rowstore: too many rows")
	// ErrBlockTooSmall is returned when the block cannot hold every row.
	ErrBlockTooSmall = errors.New("rowstore: block too small")
)

// Slot is the element type of a store's block.
type Slot struct {
	row         sparse.Row
	constructed bool
	writes      atomic.Uint32
}

// AccessObserver is told, per append, whether the appending unit ran on the
// row's owner.
type AccessObserver func(p partition.ID, local bool)

// Options configure a Store.
type Options struct {
	// Validate enables order and single-writer checks on Append.
	Validate bool
	// OnAccess is called by AppendContext. May be nil.
	OnAccess AccessObserver
}

// Store is a partitioned array of rows.
type Store struct {
	layout   partition.Layout
	nrows    int
	block    *alloc.Block[Slot]
	validate bool
	onAccess AccessObserver
	released atomic.Bool
}

// Construct places an empty row at every occupied slot of block. It spawns
// one unit per partition, each constructing its own partition's rows.
func Construct(ctx context.Context, s *sched.Scheduler, block *alloc.Block[Slot], nrows int, opts Options) (*Store, error) {
	if _, err := conv.IntToUint32(nrows); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTooManyRows, err)
	}

	layout := s.Layout()
	if block.Partitions() != layout.Partitions() || block.RowsPerPartition() < layout.RowsPerPartition(nrows) {
		return nil, fmt.Errorf("%w: %dx%d for %d rows on %d partitions",
			ErrBlockTooSmall, block.Partitions(), block.RowsPerPartition(), nrows, layout.Partitions())
	}

	st := &Store{
		layout:   layout,
		nrows:    nrows,
		block:    block,
		validate: opts.Validate,
		onAccess: opts.OnAccess,
	}

	g := s.Fork(ctx)
	for p := range partition.ID(layout.Partitions()) {
		g.Submit(p, func(context.Context) error {
			arr := block.ArrayOf(p)
			for k := range layout.Occupied(p, nrows) {
				arr[k].row = sparse.Row{}
				arr[k].constructed = true
			}
			return nil
		})
	}

	if err := g.Join(); err != nil {
		return nil, err
	}

	return st, nil
}

func (st *Store) bounds(i int) {
	if i < 0 || i >= st.nrows {
		panic(fmt.Sprintf("rowstore: row index out of range [%d] with length %d", i, st.nrows))
	}
}

func (st *Store) slot(i int) *Slot {
	st.bounds(i)
	pl := st.layout.Placement(i)
	return &st.block.ArrayOf(pl.Partition)[pl.Slot]
}

// Check panics if i is not a row of the store.
func (st *Store) Check(i int) {
	st.bounds(i)
}

// Rows returns the number of logical rows.
func (st *Store) Rows() int {
	return st.nrows
}

// Layout returns the partition layout of the store.
func (st *Store) Layout() partition.Layout {
	return st.layout
}

// Hint returns the locality token of row i. It does not touch the row but
// panics if i is out of range.
func (st *Store) Hint(i int) sched.Token {
	st.bounds(i)
	return sched.TokenFor(st.layout.Owner(i))
}

// Get returns row i. The row must not be modified through the handle.
func (st *Store) Get(i int) *sparse.Row {
	return &st.slot(i).row
}

// Append adds entries to the end of row i. Entries must be strictly
// increasing and follow the row's last column. In validation mode a row
// accepts a single append and a rejected batch leaves the row writable.
func (st *Store) Append(i int, entries []sparse.Entry) error {
	s := st.slot(i)

	if st.validate {
		if !sparse.IsSorted(entries) {
			return ErrUnsortedEntries
		}
		if s.writes.Add(1) > 1 {
			return ErrRowAlreadyWritten
		}
	}

	s.row.Append(entries...)
	return nil
}

// AppendContext is Append for callers running in a scheduler unit. It
// reports to the access observer whether the unit is placed on the owner.
func (st *Store) AppendContext(ctx context.Context, i int, entries []sparse.Entry) error {
	if st.onAccess != nil {
		owner := st.layout.Owner(i)
		st.onAccess(owner, sched.RunningOn(ctx, owner))
	}
	return st.Append(i, entries)
}

// Written returns the set of rows holding at least one entry.
func (st *Store) Written() *roaring.Bitmap {
	rb := roaring.New()
	for p := range partition.ID(st.layout.Partitions()) {
		arr := st.block.ArrayOf(p)
		for k := range st.layout.Occupied(p, st.nrows) {
			if arr[k].row.Len() > 0 {
				rb.Add(uint32(st.layout.Index(p, k))) //nolint:gosec // nrows fits uint32, checked in Construct
			}
		}
	}
	return rb
}

// Stats describes a store's contents.
type Stats struct {
	Rows             int
	Partitions       int
	RowsPerPartition int
	Written          int
	// Entries holds the number of entries stored on each partition.
	Entries []int
}

// Stats walks every row. Call it only when no append is in flight.
func (st *Store) Stats() Stats {
	stats := Stats{
		Rows:             st.nrows,
		Partitions:       st.layout.Partitions(),
		RowsPerPartition: st.block.RowsPerPartition(),
		Entries:          make([]int, st.layout.Partitions()),
	}

	for p := range partition.ID(st.layout.Partitions()) {
		arr := st.block.ArrayOf(p)
		for k := range st.layout.Occupied(p, st.nrows) {
			if n := arr[k].row.Len(); n > 0 {
				stats.Entries[p] += n
				stats.Written++
			}
		}
	}
	return stats
}

// Constructed reports whether every occupied slot was constructed and no
// other slot was.
func (st *Store) Constructed() bool {
	for p := range partition.ID(st.layout.Partitions()) {
		arr := st.block.ArrayOf(p)
		occ := st.layout.Occupied(p, st.nrows)
		for k := range arr {
			if arr[k].constructed != (k < occ) {
				return false
			}
		}
	}
	return true
}

// Release destroys every row from units hinted to each partition, then
// returns the block to its allocator. Only the first call has an effect; it
// reports whether it released anything.
func (st *Store) Release(ctx context.Context, s *sched.Scheduler) bool {
	if st.released.Swap(true) {
		return false
	}

	g := s.Fork(ctx)
	for p := range partition.ID(st.layout.Partitions()) {
		g.Submit(p, func(context.Context) error {
			arr := st.block.ArrayOf(p)
			for k := range arr {
				arr[k].row.Reset()
				arr[k].constructed = false
			}
			return nil
		})
	}
	_ = g.Join()

	return st.block.Release()
}
