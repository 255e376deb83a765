//go:build linux

package sched

import (
	"context"
	"testing"

	"github.com/hupe1980/sparserow/internal/partition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestAffinityPlacer_DisjointSets(t *testing.T) {
	layout := partition.NewLayout(2)
	a, err := NewAffinityPlacer(layout)
	if err != nil {
		t.Skipf("affinity unavailable: %v", err)
	}

	var allowed unix.CPUSet
	require.NoError(t, unix.SchedGetaffinity(0, &allowed))

	seen := map[int]partition.ID{}
	for p := partition.ID(0); int(p) < layout.Partitions(); p++ {
		cpus := a.CPUs(p)
		require.NotEmpty(t, cpus)
		for _, cpu := range cpus {
			assert.True(t, allowed.IsSet(cpu))
			if allowed.Count() >= layout.Partitions() {
				_, dup := seen[cpu]
				assert.False(t, dup, "cpu %d assigned twice", cpu)
			}
			seen[cpu] = p
		}
	}
	assert.Nil(t, a.CPUs(7))
}

func TestAffinityPlacer_EnterRestoresMask(t *testing.T) {
	layout := partition.NewLayout(2)
	a, err := NewAffinityPlacer(layout)
	if err != nil {
		t.Skipf("affinity unavailable: %v", err)
	}

	s := New(layout, WithPlacer(a))
	g := s.Fork(context.Background())
	g.Submit(1, func(ctx context.Context) error {
		if !RunningOn(ctx, 1) {
			return nil // setaffinity may be denied in restricted sandboxes
		}
		var cur unix.CPUSet
		require.NoError(t, unix.SchedGetaffinity(0, &cur))
		for cpu := 0; cpu < maxCPUs; cpu++ {
			if cur.IsSet(cpu) {
				assert.Contains(t, a.CPUs(1), cpu)
			}
		}
		return nil
	})
	require.NoError(t, g.Join())

	leave, ok := a.Enter(9)
	assert.False(t, ok)
	leave()
}
