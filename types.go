package sparserow

import (
	"context"

	"github.com/hupe1980/sparserow/internal/alloc"
	"github.com/hupe1980/sparserow/internal/fs"
	"github.com/hupe1980/sparserow/internal/partition"
	"github.com/hupe1980/sparserow/internal/sched"
	"github.com/hupe1980/sparserow/internal/sparse"
)

type (
	// Index is a column or row index.
	Index = sparse.Index
	// Scalar is an entry value and the result of Dot.
	Scalar = sparse.Scalar
	// Entry is one (column, value) pair of a row.
	Entry = sparse.Entry
	// Row is a sparse row with strictly increasing columns.
	Row = sparse.Row

	// PartitionID names a memory partition.
	PartitionID = partition.ID

	// Token is a locality hint for the next spawned unit.
	Token = sched.Token
	// Task is a unit of work.
	Task = sched.Task
	// Group is a fork/join scope.
	Group = sched.Group
	// Locality describes where a unit was asked to run.
	Locality = sched.Locality
	// Placer moves units onto partitions.
	Placer = sched.Placer
	// IgnoreHints is a Placer that honors no hint.
	IgnoreHints = sched.IgnoreHints
	// Recorder is a Placer that counts hints per partition.
	Recorder = sched.Recorder
	// PanicError is raised by Group.Join when a unit panicked.
	PanicError = sched.PanicError

	// Allocator accounts per-partition storage.
	Allocator = alloc.Allocator
	// Tracker is an Allocator that records every reservation and release.
	Tracker = alloc.Tracker

	// FileSystem abstracts the files used for snapshots.
	FileSystem = fs.FileSystem
	// File is an open snapshot file.
	File = fs.File
	// LocalFS is the os backed FileSystem.
	LocalFS = fs.LocalFS
)

// TokenFor returns a hint targeting partition p.
func TokenFor(p PartitionID) Token {
	return sched.TokenFor(p)
}

// LocalityFrom returns the locality of the unit running with ctx.
func LocalityFrom(ctx context.Context) (Locality, bool) {
	return sched.LocalityFrom(ctx)
}

// NewRecorder wraps inner and counts its hints. A nil inner ignores hints.
func NewRecorder(inner Placer) *Recorder {
	return sched.NewRecorder(inner)
}

// DiscoverPartitions returns the partition count used when none is configured.
func DiscoverPartitions() int {
	return partition.Discover()
}

// PlatformPlacer returns the affinity placer of the current platform for n
// partitions, or an error where thread affinity is unavailable.
func PlatformPlacer(n int) (Placer, error) {
	return sched.PlatformPlacer(partition.NewLayout(n))
}

// NewTracker returns an allocation tracker.
func NewTracker() *Tracker {
	return alloc.NewTracker()
}

// Dot returns the dot product of two rows sorted by strictly increasing column.
func Dot(a, b []Entry) Scalar {
	return sparse.Dot(a, b)
}

// Normalize sorts entries by column and sums duplicate columns in place.
func Normalize(entries []Entry) []Entry {
	return sparse.Normalize(entries)
}
