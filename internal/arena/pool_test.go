package arena

import (
	"sync"
	"testing"

	"github.com/hupe1980/sparserow/internal/partition"
	"github.com/hupe1980/sparserow/internal/resource"
	"github.com/hupe1980/sparserow/internal/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_GetPut(t *testing.T) {
	ctl := resource.NewController(resource.Config{})
	pool := NewPool(partition.NewLayout(2), WithMemoryAcquirer(ctl))

	b, err := pool.Get(1, 10)
	require.NoError(t, err)
	assert.Equal(t, partition.ID(1), b.Partition())
	assert.GreaterOrEqual(t, b.Cap(), MinBufferEntries)
	assert.Positive(t, ctl.MemoryUsage())

	entries := b.Entries()
	entries[0] = sparse.Entry{Col: 3, Val: 4}
	entries[b.Cap()-1] = sparse.Entry{Col: 9, Val: 1}

	pool.Put(b)

	again, err := pool.Get(1, 10)
	require.NoError(t, err)
	assert.Same(t, b, again)

	// The other partition has its own list.
	other, err := pool.Get(0, 10)
	require.NoError(t, err)
	assert.NotSame(t, b, other)

	stats := pool.Stats()
	assert.Equal(t, uint64(2), stats.Mappings)
	assert.Equal(t, uint64(3), stats.Gets)
	assert.Equal(t, uint64(1), stats.Reused)

	require.NoError(t, pool.Close())
	assert.Zero(t, ctl.MemoryUsage())
	assert.Zero(t, pool.Stats().BytesReserved)

	_, err = pool.Get(0, 1)
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, pool.Close())
}

func TestPool_BestFit(t *testing.T) {
	pool := NewPool(partition.NewLayout(1))
	defer pool.Close()

	small, err := pool.Get(0, 1)
	require.NoError(t, err)
	large, err := pool.Get(0, 1<<14)
	require.NoError(t, err)
	require.GreaterOrEqual(t, large.Cap(), 1<<14)

	pool.Put(large)
	pool.Put(small)

	got, err := pool.Get(0, 1)
	require.NoError(t, err)
	assert.Same(t, small, got)

	got, err = pool.Get(0, 1<<13)
	require.NoError(t, err)
	assert.Same(t, large, got)
}

func TestPool_MemoryLimit(t *testing.T) {
	ctl := resource.NewController(resource.Config{MemoryLimitBytes: 1024})
	pool := NewPool(partition.NewLayout(1), WithMemoryAcquirer(ctl))
	defer pool.Close()

	_, err := pool.Get(0, 1<<16)
	require.ErrorIs(t, err, ErrAllocationFailed)
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	assert.Zero(t, ctl.MemoryUsage())
}

func TestPool_InvalidPartition(t *testing.T) {
	pool := NewPool(partition.NewLayout(2))
	defer pool.Close()

	assert.Panics(t, func() { _, _ = pool.Get(2, 1) })
}

func TestPool_Concurrent(t *testing.T) {
	layout := partition.NewLayout(4)
	pool := NewPool(layout)
	defer pool.Close()

	var wg sync.WaitGroup
	for w := range 16 {
		wg.Add(1)
		go func(p partition.ID) {
			defer wg.Done()
			for range 100 {
				b, err := pool.Get(p, 64)
				if !assert.NoError(t, err) {
					return
				}
				b.Entries()[0] = sparse.Entry{Col: sparse.Index(p)}
				pool.Put(b)
			}
		}(partition.ID(w % layout.Partitions()))
	}
	wg.Wait()

	// At most one buffer per concurrent user.
	assert.LessOrEqual(t, pool.Stats().Mappings, uint64(16))
}
