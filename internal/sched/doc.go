// Package sched runs units of work next to the memory they touch.
//
// A unit is spawned inside a join scope (Group). Before spawning, the issuing
// goroutine may attach a locality hint naming the partition that owns the
// data the unit will work on. The Placer decides whether the hint is honored;
// on Linux the AffinityPlacer locks the unit's goroutine to an OS thread bound
// to the partition's CPUs. Hints never affect results, only where work runs.
//
//	g := s.Fork(ctx)
//	for p := 0; p < parts; p++ {
//	    g.Hint(sched.TokenFor(partition.ID(p)))
//	    g.Spawn(func(ctx context.Context) error { return build(ctx, p) })
//	}
//	if err := g.Join(); err != nil { ... }
//
// There is no cancellation: every spawned unit runs to completion and Join
// waits for all of them. A panic inside a unit is re-raised by Join in the
// goroutine that owns the scope.
package sched
