package sparserow

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/sparserow/internal/rowstore"
	"github.com/hupe1980/sparserow/snapshot"
)

// Matrix is a partitioned array of sparse rows.
//
// Append and Build may be called concurrently for distinct rows. After the
// build phase all methods except Close are safe for concurrent use.
type Matrix struct {
	rt     *Runtime
	store  *rowstore.Store
	logger *Logger
	bytes  int64
	closed atomic.Bool
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int {
	return m.store.Rows()
}

// Partitions returns the partition count of the matrix's runtime.
func (m *Matrix) Partitions() int {
	return m.store.Layout().Partitions()
}

// RowHint returns the locality token of row i without touching the row.
// It panics if i is out of range.
func (m *Matrix) RowHint(i int) Token {
	return m.store.Hint(i)
}

// Get returns row i. The row must not be modified through the handle and
// must not be used after Close. Get panics if i is out of range or the
// matrix is closed.
func (m *Matrix) Get(i int) *Row {
	if m.closed.Load() {
		panic(ErrClosed)
	}
	return m.store.Get(i)
}

// Append adds entries to the end of row i from a unit running on the row's
// owner. Entries must be strictly increasing and follow the row's existing
// entries. Append panics if i is out of range.
func (m *Matrix) Append(ctx context.Context, i int, entries []Entry) error {
	if m.closed.Load() {
		return ErrClosed
	}
	m.store.Check(i)

	start := time.Now()

	g := m.rt.sched.Fork(ctx)
	g.Hint(m.store.Hint(i))
	g.Spawn(func(ctx context.Context) error {
		return m.store.AppendContext(ctx, i, entries)
	})

	err := g.Join()
	m.rt.metrics.RecordAppend(len(entries), time.Since(start), err)
	m.logger.WithPartition(m.store.Layout().Owner(i)).LogAppend(ctx, i, len(entries), err)

	if err != nil {
		return &RowError{Row: i, cause: err}
	}
	return nil
}

// AppendLocal appends to row i from the calling goroutine. It is meant for
// units spawned with RowHint(i); it records through the metrics collector
// whether the unit actually runs on the row's owner.
func (m *Matrix) AppendLocal(ctx context.Context, i int, entries []Entry) error {
	if m.closed.Load() {
		return ErrClosed
	}

	start := time.Now()
	err := m.store.AppendContext(ctx, i, entries)
	m.rt.metrics.RecordAppend(len(entries), time.Since(start), err)

	if err != nil {
		return &RowError{Row: i, cause: err}
	}
	return nil
}

// Build appends every row of rows, one unit per row hinted to its owner,
// and joins once. Failed rows are reported together; other rows are still
// appended. Build panics if any index is out of range.
func (m *Matrix) Build(ctx context.Context, rows map[int][]Entry) error {
	if m.closed.Load() {
		return ErrClosed
	}
	for i := range rows {
		m.store.Check(i)
	}

	start := time.Now()

	var (
		mu   sync.Mutex
		errs []error
	)

	g := m.rt.sched.Fork(ctx)
	for i, entries := range rows {
		g.Hint(m.store.Hint(i))
		g.Spawn(func(ctx context.Context) error {
			t := time.Now()
			err := m.store.AppendContext(ctx, i, entries)
			m.rt.metrics.RecordAppend(len(entries), time.Since(t), err)
			if err != nil {
				mu.Lock()
				errs = append(errs, &RowError{Row: i, cause: err})
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Join(); err != nil {
		errs = append(errs, err)
	}

	m.rt.logger.LogBulkAppend(ctx, len(rows), len(errs), time.Since(start))
	return errors.Join(errs...)
}

// Written returns the set of rows holding at least one entry.
func (m *Matrix) Written() *roaring.Bitmap {
	return m.store.Written()
}

// Stats describes a matrix.
type Stats struct {
	Rows             int
	Partitions       int
	RowsPerPartition int
	// Written is the number of rows holding at least one entry.
	Written int
	// Entries holds the number of entries stored on each partition.
	Entries []int
	// Bytes is the storage reserved for row handles across all partitions.
	Bytes int64
}

// Stats walks every row. Call it only outside the build phase.
func (m *Matrix) Stats() Stats {
	s := m.store.Stats()
	return Stats{
		Rows:             s.Rows,
		Partitions:       s.Partitions,
		RowsPerPartition: s.RowsPerPartition,
		Written:          s.Written,
		Entries:          s.Entries,
		Bytes:            m.bytes,
	}
}

// WriteSnapshot writes every non-empty row to w and returns the number of
// bytes written.
func (m *Matrix) WriteSnapshot(ctx context.Context, w io.Writer, c snapshot.Compression) (int64, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}

	src := matrixSource{m.store}
	n, err := snapshot.Write(ctx, w, src, c, snapshot.WithResourceController(m.rt.rc))
	m.rt.logger.LogSnapshot(ctx, "write", m.Rows(), n, err)
	return n, err
}

// SaveFile atomically writes a snapshot to path on the runtime's file system.
func (m *Matrix) SaveFile(ctx context.Context, path string, c snapshot.Compression) (int64, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}

	src := matrixSource{m.store}
	n, err := snapshot.WriteFile(ctx, m.rt.opts.fileSystem, path, src, c, snapshot.WithResourceController(m.rt.rc))
	m.rt.logger.LogSnapshot(ctx, "save", m.Rows(), n, err)
	return n, err
}

type matrixSource struct {
	st *rowstore.Store
}

func (s matrixSource) Rows() int                { return s.st.Rows() }
func (s matrixSource) Partitions() int          { return s.st.Layout().Partitions() }
func (s matrixSource) Written() *roaring.Bitmap { return s.st.Written() }
func (s matrixSource) Row(i int) []Entry        { return s.st.Get(i).Entries() }

// Close destroys every row and releases the storage of all partitions.
// Close is idempotent.
func (m *Matrix) Close() error {
	if m.closed.Swap(true) {
		return nil
	}

	m.store.Release(context.Background(), m.rt.sched)
	m.logger.LogClose(context.Background(), "matrix", nil)
	return nil
}
