package sched

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"github.com/hupe1980/sparserow/internal/partition"
	"golang.org/x/sync/errgroup"
)

// Task is a unit of work. ctx carries the unit's Locality.
type Task func(ctx context.Context) error

// SpawnObserver is notified once per hinted unit, after placement.
type SpawnObserver func(p partition.ID, honored bool)

// errUnitPanicked is returned from a unit whose body panicked; Join replaces
// it with the recovered panic.
var errUnitPanicked = errors.New("sched: unit panicked")

// PanicError carries a panic recovered inside a unit. Join re-panics with it.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("sched: panic in unit: %v\n%s", e.Value, e.Stack)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Scheduler issues hinted units of work for a fixed partition layout.
// It holds no per-unit state and is safe for concurrent use.
type Scheduler struct {
	layout      partition.Layout
	placer      Placer
	maxInFlight int
	observer    SpawnObserver
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPlacer sets the placer. nil ignores all hints.
func WithPlacer(p Placer) Option {
	return func(s *Scheduler) {
		if p == nil {
			p = IgnoreHints{}
		}
		s.placer = p
	}
}

// WithMaxInFlight bounds the number of running units per join scope.
// Spawn blocks while the bound is reached. 0 means unbounded.
func WithMaxInFlight(n int) Option {
	return func(s *Scheduler) {
		s.maxInFlight = n
	}
}

// WithSpawnObserver installs a callback for placement metrics.
func WithSpawnObserver(fn SpawnObserver) Option {
	return func(s *Scheduler) {
		s.observer = fn
	}
}

// New creates a Scheduler. Without WithPlacer the platform placer is used
// when available, otherwise hints are ignored.
func New(layout partition.Layout, optFns ...Option) *Scheduler {
	s := &Scheduler{layout: layout}

	for _, fn := range optFns {
		fn(s)
	}

	if s.placer == nil {
		if p, err := platformPlacer(layout); err == nil {
			s.placer = p
		} else {
			s.placer = IgnoreHints{}
		}
	}

	return s
}

// PlatformPlacer returns the affinity placer of the current platform, or an
// error where thread affinity is unavailable.
func PlatformPlacer(layout partition.Layout) (Placer, error) {
	return platformPlacer(layout)
}

// Layout returns the partition layout hints are resolved against.
func (s *Scheduler) Layout() partition.Layout {
	return s.layout
}

// Placer returns the active placer.
func (s *Scheduler) Placer() Placer {
	return s.placer
}

// Fork opens a join scope. Units spawned in it receive contexts derived
// from ctx; ctx is never cancelled by the scope.
func (s *Scheduler) Fork(ctx context.Context) *Group {
	g := &Group{s: s, ctx: ctx}
	if s.maxInFlight > 0 {
		g.eg.SetLimit(s.maxInFlight)
	}
	return g
}

// Group is a fork/join scope.
//
// Hint, Spawn and Submit must be called from the goroutine that owns the
// scope (the one that called Fork), and Join must be called exactly once
// after the last spawn.
type Group struct {
	s    *Scheduler
	ctx  context.Context
	eg   errgroup.Group
	hint Token

	spawned atomic.Int64
	panicV  atomic.Pointer[PanicError]
}

// Hint sets the locality of the next Spawn.
func (g *Group) Hint(tok Token) {
	g.hint = tok
}

// Spawn starts task, consuming the pending hint.
func (g *Group) Spawn(task Task) {
	tok := g.hint
	g.hint = Token{}
	g.spawn(tok, task)
}

// Submit starts task with an explicit affinity.
func (g *Group) Submit(p partition.ID, task Task) {
	g.spawn(TokenFor(p), task)
}

// Spawned returns the number of units started in this scope.
func (g *Group) Spawned() int {
	return int(g.spawned.Load())
}

func (g *Group) spawn(tok Token, task Task) {
	if p, ok := tok.Partition(); ok && !g.s.layout.Valid(p) {
		panic(fmt.Sprintf("sched: hint targets partition %d outside [0,%d)", p, g.s.layout.Partitions()))
	}

	g.spawned.Add(1)
	g.eg.Go(func() (err error) {
		ctx := withLocality(g.ctx, nil)

		if p, ok := tok.Partition(); ok {
			leave, honored := g.s.placer.Enter(p)
			defer leave()

			ctx = withLocality(g.ctx, &Locality{Partition: p, Honored: honored})
			if g.s.observer != nil {
				g.s.observer(p, honored)
			}
		}

		defer func() {
			if r := recover(); r != nil {
				g.panicV.CompareAndSwap(nil, &PanicError{Value: r, Stack: debug.Stack()})
				err = errUnitPanicked
			}
		}()

		return task(ctx)
	})
}

// Join waits for every unit spawned in the scope and returns the first error.
// If any unit panicked, Join panics with a *PanicError.
func (g *Group) Join() error {
	err := g.eg.Wait()
	if p := g.panicV.Load(); p != nil {
		panic(p)
	}
	return err
}
