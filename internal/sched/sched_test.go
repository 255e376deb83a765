package sched

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/sparserow/internal/partition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pinAll honors every hint without touching threads.
type pinAll struct{}

func (pinAll) Enter(partition.ID) (func(), bool) { return noop, true }

func TestGroup_HintAppliesToNextSpawnOnly(t *testing.T) {
	s := New(partition.NewLayout(4), WithPlacer(pinAll{}))
	g := s.Fork(context.Background())

	var (
		mu   sync.Mutex
		locs = map[string]Locality{}
		oks  = map[string]bool{}
	)
	record := func(name string) Task {
		return func(ctx context.Context) error {
			loc, ok := LocalityFrom(ctx)
			mu.Lock()
			locs[name], oks[name] = loc, ok
			mu.Unlock()
			return nil
		}
	}

	g.Hint(TokenFor(2))
	g.Spawn(record("hinted"))
	g.Spawn(record("plain"))
	g.Submit(3, record("submitted"))
	require.NoError(t, g.Join())

	assert.True(t, oks["hinted"])
	assert.Equal(t, Locality{Partition: 2, Honored: true}, locs["hinted"])
	assert.False(t, oks["plain"])
	assert.Equal(t, Locality{Partition: 3, Honored: true}, locs["submitted"])
	assert.Equal(t, 3, g.Spawned())
}

func TestGroup_JoinWaitsForAll(t *testing.T) {
	s := New(partition.NewLayout(8), WithPlacer(IgnoreHints{}))
	g := s.Fork(context.Background())

	var done atomic.Int64
	for p := 0; p < 8; p++ {
		g.Submit(partition.ID(p), func(ctx context.Context) error {
			done.Add(1)
			return nil
		})
	}
	require.NoError(t, g.Join())
	assert.Equal(t, int64(8), done.Load())
}

func TestGroup_ErrorDoesNotCancelSiblings(t *testing.T) {
	s := New(partition.NewLayout(2), WithPlacer(IgnoreHints{}))
	g := s.Fork(context.Background())

	boom := errors.New("boom")
	var ran atomic.Int64
	g.Submit(0, func(ctx context.Context) error {
		ran.Add(1)
		return boom
	})
	for i := 0; i < 10; i++ {
		g.Submit(1, func(ctx context.Context) error {
			ran.Add(1)
			return ctx.Err()
		})
	}

	assert.ErrorIs(t, g.Join(), boom)
	assert.Equal(t, int64(11), ran.Load())
}

func TestGroup_Reentrant(t *testing.T) {
	s := New(partition.NewLayout(4), WithPlacer(pinAll{}))
	g := s.Fork(context.Background())

	var leaves atomic.Int64
	for p := 0; p < 4; p++ {
		g.Submit(partition.ID(p), func(ctx context.Context) error {
			inner := s.Fork(ctx)
			for q := 0; q < 4; q++ {
				inner.Submit(partition.ID(q), func(ctx context.Context) error {
					assert.True(t, RunningOn(ctx, partition.ID(q)))
					leaves.Add(1)
					return nil
				})
			}
			return inner.Join()
		})
	}

	require.NoError(t, g.Join())
	assert.Equal(t, int64(16), leaves.Load())
}

func TestGroup_PanicSurfacesAtJoin(t *testing.T) {
	s := New(partition.NewLayout(2), WithPlacer(IgnoreHints{}))
	g := s.Fork(context.Background())

	g.Submit(1, func(ctx context.Context) error {
		panic("row index out of range")
	})

	defer func() {
		r := recover()
		require.NotNil(t, r)
		pe, ok := r.(*PanicError)
		require.True(t, ok)
		assert.Equal(t, "row index out of range", pe.Value)
		assert.NotEmpty(t, pe.Stack)
	}()
	_ = g.Join()
	t.Fatal("Join should have panicked")
}

func TestGroup_InvalidHintPanics(t *testing.T) {
	s := New(partition.NewLayout(2), WithPlacer(IgnoreHints{}))
	g := s.Fork(context.Background())

	assert.Panics(t, func() {
		g.Submit(2, func(context.Context) error { return nil })
	})
	require.NoError(t, g.Join())
}

func TestGroup_IgnoreHints(t *testing.T) {
	rec := NewRecorder(IgnoreHints{})
	s := New(partition.NewLayout(4), WithPlacer(rec))
	g := s.Fork(context.Background())

	g.Submit(1, func(ctx context.Context) error {
		loc, ok := LocalityFrom(ctx)
		assert.True(t, ok)
		assert.Equal(t, partition.ID(1), loc.Partition)
		assert.False(t, loc.Honored)
		assert.False(t, RunningOn(ctx, 1))
		return nil
	})
	require.NoError(t, g.Join())

	hinted, honored := rec.Total()
	assert.Equal(t, 1, hinted)
	assert.Equal(t, 0, honored)
	assert.Equal(t, 1, rec.Entered(1))

	rec.Reset()
	hinted, _ = rec.Total()
	assert.Zero(t, hinted)
}

func TestScheduler_ObserverAndLimit(t *testing.T) {
	var observed atomic.Int64
	var inFlight, peak atomic.Int64

	s := New(partition.NewLayout(4),
		WithPlacer(pinAll{}),
		WithMaxInFlight(2),
		WithSpawnObserver(func(p partition.ID, honored bool) {
			assert.True(t, honored)
			observed.Add(1)
		}),
	)

	g := s.Fork(context.Background())
	for i := 0; i < 20; i++ {
		g.Submit(partition.ID(i%4), func(ctx context.Context) error {
			n := inFlight.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			inFlight.Add(-1)
			return nil
		})
	}
	require.NoError(t, g.Join())

	assert.Equal(t, int64(20), observed.Load())
	assert.LessOrEqual(t, peak.Load(), int64(2))
}

func TestTokenZeroValue(t *testing.T) {
	var tok Token
	_, ok := tok.Partition()
	assert.False(t, ok)

	p, ok := TokenFor(5).Partition()
	assert.True(t, ok)
	assert.Equal(t, partition.ID(5), p)
}

func BenchmarkGroup_FanOut(b *testing.B) {
	s := New(partition.NewLayout(8), WithPlacer(IgnoreHints{}))
	for b.Loop() {
		g := s.Fork(context.Background())
		for p := 0; p < 8; p++ {
			g.Submit(partition.ID(p), func(context.Context) error { return nil })
		}
		_ = g.Join()
	}
}
