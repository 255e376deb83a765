package sparserow

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/hupe1980/sparserow/internal/alloc"
	"github.com/hupe1980/sparserow/internal/arena"
	"github.com/hupe1980/sparserow/internal/conv"
	"github.com/hupe1980/sparserow/internal/partition"
	"github.com/hupe1980/sparserow/internal/resource"
	"github.com/hupe1980/sparserow/internal/rowstore"
	"github.com/hupe1980/sparserow/internal/sched"
	"github.com/hupe1980/sparserow/internal/sparse"
	"github.com/hupe1980/sparserow/snapshot"
)

// Runtime owns the partition layout, the scheduler and the per-partition
// scratch buffers shared by its matrices.
type Runtime struct {
	opts      options
	layout    partition.Layout
	sched     *sched.Scheduler
	rc        *resource.Controller
	allocator Allocator
	scratch   *arena.Pool
	logger    *Logger
	metrics   MetricsCollector
	closed    atomic.Bool
}

// NewRuntime creates a Runtime.
func NewRuntime(optFns ...Option) (*Runtime, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	parts := o.partitions
	if parts == 0 {
		parts = partition.Discover()
	}
	layout := partition.NewLayout(parts)

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   o.memoryLimit,
		IOLimitBytesPerSec: o.ioLimit,
	})

	allocator := o.allocator
	if allocator == nil {
		allocator = alloc.NewControllerAllocator(rc, layout)
	}

	metrics := o.metricsCollector
	schedOpts := []sched.Option{
		sched.WithMaxInFlight(o.maxInFlight),
		sched.WithSpawnObserver(func(p partition.ID, honored bool) {
			metrics.RecordSpawn(int(p), honored)
		}),
	}
	if o.placer != nil {
		schedOpts = append(schedOpts, sched.WithPlacer(o.placer))
	}

	r := &Runtime{
		opts:      o,
		layout:    layout,
		sched:     sched.New(layout, schedOpts...),
		rc:        rc,
		allocator: allocator,
		scratch:   arena.NewPool(layout, arena.WithMemoryAcquirer(rc)),
		logger:    o.logger,
		metrics:   metrics,
	}

	r.logger.Info("runtime started",
		"partitions", parts,
		"placer", fmt.Sprintf("%T", r.sched.Placer()),
		"scratch", o.scratch,
		"validate", o.validate,
	)

	return r, nil
}

// Partitions returns the number of memory partitions.
func (r *Runtime) Partitions() int {
	return r.layout.Partitions()
}

// Placer returns the active placer.
func (r *Runtime) Placer() Placer {
	return r.sched.Placer()
}

// MemoryUsage returns the bytes reserved through the runtime's controller.
func (r *Runtime) MemoryUsage() int64 {
	return r.rc.MemoryUsage()
}

// ScratchStats returns usage of the per-partition scratch buffers.
func (r *Runtime) ScratchStats() arena.Stats {
	return r.scratch.Stats()
}

// Fork opens a join scope on the runtime's scheduler.
func (r *Runtime) Fork(ctx context.Context) *Group {
	return r.sched.Fork(ctx)
}

// NewMatrix reserves storage for nrows rows and constructs every row empty.
// Allocation and construction each run one unit per partition, hinted to
// that partition. On failure no matrix is returned and all storage already
// reserved is released.
func (r *Runtime) NewMatrix(ctx context.Context, nrows int) (*Matrix, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	if nrows < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRows, nrows)
	}
	if _, err := conv.IntToUint32(nrows); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTooManyRows, err)
	}

	start := time.Now()

	block, err := alloc.New[rowstore.Slot](ctx, r.sched, r.layout.RowsPerPartition(nrows), r.allocator)
	if err != nil {
		r.metrics.RecordAlloc(0, err)
		r.logger.LogBuild(ctx, nrows, r.layout.Partitions(), 0, time.Since(start), err)
		return nil, err
	}
	r.metrics.RecordAlloc(block.Bytes(), nil)

	store, err := rowstore.Construct(ctx, r.sched, block, nrows, rowstore.Options{
		Validate: r.opts.validate,
		OnAccess: func(p partition.ID, local bool) {
			r.metrics.RecordAccess(int(p), local)
		},
	})
	if err != nil {
		block.Release()
		r.logger.LogBuild(ctx, nrows, r.layout.Partitions(), 0, time.Since(start), err)
		return nil, err
	}

	r.logger.LogBuild(ctx, nrows, r.layout.Partitions(), block.Bytes(), time.Since(start), nil)

	return &Matrix{rt: r, store: store, logger: r.logger.WithRows(nrows), bytes: block.Bytes()}, nil
}

// Dot returns the dot product of row i of a and row j of b.
//
// The merge runs in a unit hinted to the owner of row i of a. With
// WithScratch, row j of b is first copied into a buffer of that partition.
// Both rows must be sorted; this is not verified here. Out-of-range indexes
// panic.
func (r *Runtime) Dot(ctx context.Context, a *Matrix, i int, b *Matrix, j int) (Scalar, error) {
	if r.closed.Load() || a.closed.Load() || b.closed.Load() {
		return 0, ErrClosed
	}
	if a.rt != r || b.rt != r {
		return 0, ErrPartitionMismatch
	}

	a.store.Check(i)
	b.store.Check(j)

	start := time.Now()
	useScratch := r.opts.scratch

	var out Scalar

	g := r.sched.Fork(ctx)
	g.Hint(a.store.Hint(i))
	g.Spawn(func(context.Context) error {
		ra, rb := a.store.Get(i), b.store.Get(j)
		if !useScratch || rb.Len() == 0 {
			out = ra.Dot(rb)
			return nil
		}

		buf, err := r.scratch.Get(r.layout.Owner(i), rb.Len())
		if err != nil {
			return err
		}
		defer r.scratch.Put(buf)

		out = sparse.DotScratch(ra.Entries(), rb.Entries(), buf.Entries())
		return nil
	})
	err := g.Join()

	r.metrics.RecordDot(time.Since(start), useScratch, err)
	r.logger.WithPartition(r.layout.Owner(i)).LogDot(ctx, i, j, out, err)

	if err != nil {
		return 0, err
	}
	return out, nil
}

// LoadMatrix reads a snapshot written by Matrix.WriteSnapshot. Rows are
// placed for this runtime's layout, which may differ from the writer's.
func (r *Runtime) LoadMatrix(ctx context.Context, rd io.Reader) (*Matrix, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}

	h, rows, err := snapshot.ReadAll(ctx, rd, snapshot.WithResourceController(r.rc))
	return r.loaded(ctx, h, rows, err)
}

// LoadFile reads a snapshot file written by Matrix.SaveFile or
// Matrix.WriteSnapshot from the runtime's file system.
func (r *Runtime) LoadFile(ctx context.Context, path string) (*Matrix, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}

	h, rows, err := snapshot.ReadFile(ctx, r.opts.fileSystem, path, snapshot.WithResourceController(r.rc))
	return r.loaded(ctx, h, rows, err)
}

func (r *Runtime) loaded(ctx context.Context, h snapshot.Header, rows map[int][]Entry, err error) (*Matrix, error) {
	if err != nil {
		r.logger.LogSnapshot(ctx, "load", 0, 0, err)
		return nil, err
	}

	m, err := r.NewMatrix(ctx, int(h.Rows)) //nolint:gosec // checked by snapshot.NewReader
	if err != nil {
		return nil, err
	}

	if err := m.Build(ctx, rows); err != nil {
		_ = m.Close()
		r.logger.LogSnapshot(ctx, "load", len(rows), 0, err)
		return nil, err
	}

	r.logger.LogSnapshot(ctx, "load", len(rows), 0, nil)
	return m, nil
}

// Close releases the scratch buffers. Matrices must be closed separately.
// Close is idempotent.
func (r *Runtime) Close() error {
	if r.closed.Swap(true) {
		return nil
	}

	err := r.scratch.Close()
	r.logger.LogClose(context.Background(), "runtime", err)
	return err
}
