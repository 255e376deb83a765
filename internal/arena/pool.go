package arena

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/hupe1980/sparserow/internal/mmap"
	"github.com/hupe1980/sparserow/internal/partition"
	"github.com/hupe1980/sparserow/internal/sparse"
)

// MemoryAcquirer accounts mapped bytes. *resource.Controller implements it.
type MemoryAcquirer interface {
	TryAcquireMemory(bytes int64) error
	ReleaseMemory(bytes int64)
}

var (
	// ErrClosed is returned by Get after Close.
	ErrClosed = errors.New("arena: pool is closed")
	// ErrAllocationFailed wraps mapping and accounting failures.
	ErrAllocationFailed = errors.New("arena: allocation failed")
)

// MinBufferEntries is the smallest buffer the pool maps.
const MinBufferEntries = 256

// Stats tracks pool usage.
type Stats struct {
	Mappings      uint64 // Current: live mappings
	BytesReserved uint64 // Current: mapped bytes
	Gets          uint64 // Historical: Get calls
	Reused        uint64 // Historical: Get calls served from a free list
}

type atomicStats struct {
	Mappings      atomic.Uint64
	BytesReserved atomic.Uint64
	Gets          atomic.Uint64
	Reused        atomic.Uint64
}

// Buffer is a scratch slice of entries owned by one partition.
type Buffer struct {
	part    partition.ID
	mapping *mmap.Mapping
	entries []sparse.Entry
}

// Partition returns the partition the buffer belongs to.
func (b *Buffer) Partition() partition.ID {
	return b.part
}

// Cap returns the number of entries the buffer can hold.
func (b *Buffer) Cap() int {
	return len(b.entries)
}

// Entries returns the full buffer. Contents are unspecified.
func (b *Buffer) Entries() []sparse.Entry {
	return b.entries
}

type freeList struct {
	mu   sync.Mutex
	free []*Buffer
	all  []*Buffer
}

// Pool hands out scratch buffers per partition.
type Pool struct {
	layout   partition.Layout
	lists    []freeList
	acquirer MemoryAcquirer
	pageSize int
	closed   atomic.Bool
	stats    atomicStats
}

// Option is a configuration option for Pool.
type Option func(*Pool)

// WithMemoryAcquirer sets the memory acquirer for the pool.
func WithMemoryAcquirer(acquirer MemoryAcquirer) Option {
	return func(p *Pool) {
		p.acquirer = acquirer
	}
}

// NewPool creates an empty pool for layout. Nothing is mapped until Get.
func NewPool(layout partition.Layout, opts ...Option) *Pool {
	p := &Pool{
		layout:   layout,
		lists:    make([]freeList, layout.Partitions()),
		pageSize: os.Getpagesize(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Get returns a buffer on partition part with room for at least n entries.
func (p *Pool) Get(part partition.ID, n int) (*Buffer, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	if !p.layout.Valid(part) {
		panic(fmt.Sprintf("arena: partition %d outside [0,%d)", part, p.layout.Partitions()))
	}

	p.stats.Gets.Add(1)

	fl := &p.lists[part]
	fl.mu.Lock()
	defer fl.mu.Unlock()

	// Best fit: the smallest free buffer that is large enough.
	best := -1
	for k, b := range fl.free {
		if b.Cap() >= n && (best < 0 || b.Cap() < fl.free[best].Cap()) {
			best = k
		}
	}
	if best >= 0 {
		b := fl.free[best]
		fl.free[best] = fl.free[len(fl.free)-1]
		fl.free = fl.free[:len(fl.free)-1]
		p.stats.Reused.Add(1)
		return b, nil
	}

	b, err := p.mapBuffer(part, n)
	if err != nil {
		return nil, err
	}
	fl.all = append(fl.all, b)
	return b, nil
}

func (p *Pool) mapBuffer(part partition.ID, n int) (*Buffer, error) {
	if n < MinBufferEntries {
		n = MinBufferEntries
	}

	size := n * sparse.EntrySize
	size = (size + p.pageSize - 1) &^ (p.pageSize - 1)

	if p.acquirer != nil {
		if err := p.acquirer.TryAcquireMemory(int64(size)); err != nil {
			return nil, fmt.Errorf("%w: scratch for partition %d: %w", ErrAllocationFailed, part, err)
		}
	}

	m, err := mmap.MapAnon(size)
	if err != nil {
		if p.acquirer != nil {
			p.acquirer.ReleaseMemory(int64(size))
		}
		return nil, fmt.Errorf("%w: scratch for partition %d: %w", ErrAllocationFailed, part, err)
	}

	data := m.Bytes()
	entries := unsafe.Slice((*sparse.Entry)(unsafe.Pointer(&data[0])), size/sparse.EntrySize) //nolint:gosec // Entry holds no pointers

	p.stats.Mappings.Add(1)
	p.stats.BytesReserved.Add(uint64(size))

	return &Buffer{part: part, mapping: m, entries: entries}, nil
}

// Put returns b to its partition's free list.
func (p *Pool) Put(b *Buffer) {
	if b == nil {
		return
	}

	fl := &p.lists[b.part]
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if b.mapping.Closed() {
		return
	}
	fl.free = append(fl.free, b)
}

// Stats returns the current pool statistics.
func (p *Pool) Stats() Stats {
	return Stats{
		Mappings:      p.stats.Mappings.Load(),
		BytesReserved: p.stats.BytesReserved.Load(),
		Gets:          p.stats.Gets.Load(),
		Reused:        p.stats.Reused.Load(),
	}
}

// Close unmaps every buffer and releases the accounted memory.
// Buffers must not be used afterwards. Close is idempotent.
func (p *Pool) Close() error {
	if p.closed.Swap(true) {
		return nil
	}

	var errs []error
	for i := range p.lists {
		fl := &p.lists[i]
		fl.mu.Lock()
		for _, b := range fl.all {
			size := b.mapping.Size()
			if err := b.mapping.Close(); err != nil {
				errs = append(errs, err)
			}
			if p.acquirer != nil {
				p.acquirer.ReleaseMemory(int64(size))
			}
			b.entries = nil
		}
		fl.all, fl.free = nil, nil
		fl.mu.Unlock()
	}

	p.stats.Mappings.Store(0)
	p.stats.BytesReserved.Store(0)

	return errors.Join(errs...)
}
