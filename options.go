package sparserow

import (
	"github.com/hupe1980/sparserow/internal/fs"
	"github.com/hupe1980/sparserow/internal/sched"
)

type options struct {
	partitions       int
	placer           Placer
	allocator        Allocator
	memoryLimit      int64
	ioLimit          int64
	logger           *Logger
	metricsCollector MetricsCollector
	validate         bool
	scratch          bool
	maxInFlight      int
	fileSystem       FileSystem
}

func defaultOptions() options {
	return options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		fileSystem:       fs.Default,
	}
}

// Option configures a Runtime.
type Option func(*options)

// WithPartitions sets the number of memory partitions.
//
// 0 (the default) uses SPARSEROW_PARTITIONS if set, otherwise GOMAXPROCS.
// A negative count panics in NewRuntime.
func WithPartitions(n int) Option {
	return func(o *options) {
		o.partitions = n
	}
}

// WithPlacer sets the placer that decides whether locality hints are
// honored. The default is the platform affinity placer where available.
func WithPlacer(p Placer) Option {
	return func(o *options) {
		o.placer = p
	}
}

// WithIgnoreHints drops every locality hint. Results are unchanged.
func WithIgnoreHints() Option {
	return func(o *options) {
		o.placer = sched.IgnoreHints{}
	}
}

// WithAllocator replaces the default allocator. The memory limit of
// WithMemoryLimit only applies to the default allocator.
func WithAllocator(a Allocator) Option {
	return func(o *options) {
		o.allocator = a
	}
}

// WithMemoryLimit bounds the bytes reserved for rows and scratch buffers.
// Exceeding it fails NewMatrix with ErrAllocationFailed. 0 means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithIOLimit bounds snapshot throughput in bytes per second. 0 means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithLogger sets the logger. If nil, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector. If nil, metrics are disabled.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithValidation enables order checks on append and rejects a second append
// to the same row. Without it, callers are trusted.
func WithValidation(enabled bool) Option {
	return func(o *options) {
		o.validate = enabled
	}
}

// WithScratch makes Dot copy the second operand into a buffer local to the
// first operand's partition before merging.
func WithScratch(enabled bool) Option {
	return func(o *options) {
		o.scratch = enabled
	}
}

// WithMaxInFlight bounds the number of concurrently running units per join
// scope. 0 means unbounded.
func WithMaxInFlight(n int) Option {
	return func(o *options) {
		o.maxInFlight = n
	}
}

// WithFileSystem sets the file system used by Matrix.SaveFile and
// Runtime.LoadFile. If nil, the local file system is used.
func WithFileSystem(fsys FileSystem) Option {
	return func(o *options) {
		if fsys == nil {
			fsys = fs.Default
		}
		o.fileSystem = fsys
	}
}
