//go:build linux

package sched

import (
	"fmt"
	"runtime"

	"github.com/hupe1980/sparserow/internal/partition"
	"golang.org/x/sys/unix"
)

// maxCPUs is CPU_SETSIZE.
const maxCPUs = 1024

// AffinityPlacer binds a unit's OS thread to the CPUs of its partition.
//
// The allowed CPUs of the process are split into contiguous, disjoint runs,
// one per partition. With fewer CPUs than partitions, partition p uses CPU
// p mod ncpu. Memory first touched on a bound thread is placed on that
// thread's NUMA node by the kernel's default policy.
type AffinityPlacer struct {
	sets []unix.CPUSet
}

// NewAffinityPlacer builds the CPU sets for the given layout.
func NewAffinityPlacer(layout partition.Layout) (*AffinityPlacer, error) {
	var allowed unix.CPUSet
	if err := unix.SchedGetaffinity(0, &allowed); err != nil {
		return nil, fmt.Errorf("sched: read cpu affinity: %w", err)
	}

	cpus := make([]int, 0, allowed.Count())
	for cpu := 0; cpu < maxCPUs; cpu++ {
		if allowed.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}
	if len(cpus) == 0 {
		return nil, fmt.Errorf("sched: empty cpu affinity mask")
	}

	parts := layout.Partitions()
	sets := make([]unix.CPUSet, parts)
	for p := range sets {
		sets[p].Zero()
		if len(cpus) < parts {
			sets[p].Set(cpus[p%len(cpus)])
			continue
		}
		lo, hi := p*len(cpus)/parts, (p+1)*len(cpus)/parts
		for _, cpu := range cpus[lo:hi] {
			sets[p].Set(cpu)
		}
	}

	return &AffinityPlacer{sets: sets}, nil
}

// Enter implements Placer.
func (a *AffinityPlacer) Enter(p partition.ID) (func(), bool) {
	if int(p) < 0 || int(p) >= len(a.sets) {
		return noop, false
	}

	runtime.LockOSThread()

	var prev unix.CPUSet
	if err := unix.SchedGetaffinity(0, &prev); err != nil {
		runtime.UnlockOSThread()
		return noop, false
	}

	set := a.sets[p]
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		runtime.UnlockOSThread()
		return noop, false
	}

	return func() {
		// A thread whose mask cannot be restored must not go back to the
		// runtime's pool; leaving it locked makes it exit with the goroutine.
		if err := unix.SchedSetaffinity(0, &prev); err != nil {
			return
		}
		runtime.UnlockOSThread()
	}, true
}

// CPUs returns the CPUs assigned to partition p.
func (a *AffinityPlacer) CPUs(p partition.ID) []int {
	if int(p) < 0 || int(p) >= len(a.sets) {
		return nil
	}
	var out []int
	for cpu := 0; cpu < maxCPUs; cpu++ {
		if a.sets[p].IsSet(cpu) {
			out = append(out, cpu)
		}
	}
	return out
}

func platformPlacer(layout partition.Layout) (Placer, error) {
	return NewAffinityPlacer(layout)
}
