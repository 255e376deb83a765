package sparserow

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; package
// promcollector provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordSpawn is called once per hinted unit, after placement.
	// honored is false when the placer ignored the hint.
	RecordSpawn(partition int, honored bool)

	// RecordAccess is called per append with whether the appending unit ran
	// on the row's owning partition.
	RecordAccess(partition int, local bool)

	// RecordAppend is called after each append to a row.
	RecordAppend(entries int, duration time.Duration, err error)

	// RecordDot is called after each merge. scratch reports whether the
	// second operand was copied into a partition-local buffer.
	RecordDot(duration time.Duration, scratch bool, err error)

	// RecordAlloc is called after storage for a matrix was reserved.
	RecordAlloc(bytes int64, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSpawn(int, bool)                  {}
func (NoopMetricsCollector) RecordAccess(int, bool)                 {}
func (NoopMetricsCollector) RecordAppend(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordDot(time.Duration, bool, error)   {}
func (NoopMetricsCollector) RecordAlloc(int64, error)               {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SpawnCount     atomic.Int64
	SpawnHonored   atomic.Int64
	LocalAccesses  atomic.Int64
	RemoteAccesses atomic.Int64
	AppendCount    atomic.Int64
	AppendEntries  atomic.Int64
	AppendErrors   atomic.Int64
	DotCount       atomic.Int64
	DotScratch     atomic.Int64
	DotErrors      atomic.Int64
	DotTotalNanos  atomic.Int64
	AllocCount     atomic.Int64
	AllocBytes     atomic.Int64
	AllocErrors    atomic.Int64
}

// RecordSpawn implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSpawn(_ int, honored bool) {
	b.SpawnCount.Add(1)
	if honored {
		b.SpawnHonored.Add(1)
	}
}

// RecordAccess implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAccess(_ int, local bool) {
	if local {
		b.LocalAccesses.Add(1)
	} else {
		b.RemoteAccesses.Add(1)
	}
}

// RecordAppend implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAppend(entries int, _ time.Duration, err error) {
	b.AppendCount.Add(1)
	b.AppendEntries.Add(int64(entries))
	if err != nil {
		b.AppendErrors.Add(1)
	}
}

// RecordDot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDot(duration time.Duration, scratch bool, err error) {
	b.DotCount.Add(1)
	b.DotTotalNanos.Add(duration.Nanoseconds())
	if scratch {
		b.DotScratch.Add(1)
	}
	if err != nil {
		b.DotErrors.Add(1)
	}
}

// RecordAlloc implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAlloc(bytes int64, err error) {
	b.AllocCount.Add(1)
	if err != nil {
		b.AllocErrors.Add(1)
		return
	}
	b.AllocBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SpawnCount:     b.SpawnCount.Load(),
		SpawnHonored:   b.SpawnHonored.Load(),
		LocalAccesses:  b.LocalAccesses.Load(),
		RemoteAccesses: b.RemoteAccesses.Load(),
		AppendCount:    b.AppendCount.Load(),
		AppendEntries:  b.AppendEntries.Load(),
		AppendErrors:   b.AppendErrors.Load(),
		DotCount:       b.DotCount.Load(),
		DotScratch:     b.DotScratch.Load(),
		DotErrors:      b.DotErrors.Load(),
		DotAvgNanos:    b.getAvgDotNanos(),
		AllocCount:     b.AllocCount.Load(),
		AllocBytes:     b.AllocBytes.Load(),
		AllocErrors:    b.AllocErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgDotNanos() int64 {
	count := b.DotCount.Load()
	if count == 0 {
		return 0
	}
	return b.DotTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SpawnCount     int64
	SpawnHonored   int64
	LocalAccesses  int64
	RemoteAccesses int64
	AppendCount    int64
	AppendEntries  int64
	AppendErrors   int64
	DotCount       int64
	DotScratch     int64
	DotErrors      int64
	DotAvgNanos    int64
	AllocCount     int64
	AllocBytes     int64
	AllocErrors    int64
}
