// Package promcollector implements sparserow.MetricsCollector with
// Prometheus counters and histograms.
//
//	reg := prometheus.NewRegistry()
//	rt, _ := sparserow.NewRuntime(sparserow.WithMetricsCollector(promcollector.New(reg)))
package promcollector

import (
	"strconv"
	"time"

	"github.com/hupe1980/sparserow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var _ sparserow.MetricsCollector = (*Collector)(nil)

type options struct {
	namespace string
	buckets   []float64
}

// Option configures a Collector.
type Option func(*options)

// WithNamespace sets the metric namespace. Default "sparserow".
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = ns
	}
}

// WithBuckets sets the duration histogram buckets in seconds.
func WithBuckets(b []float64) Option {
	return func(o *options) {
		o.buckets = b
	}
}

// Collector records sparserow operations as Prometheus metrics.
type Collector struct {
	spawns        *prometheus.CounterVec
	accesses      *prometheus.CounterVec
	appends       *prometheus.CounterVec
	appendEntries prometheus.Counter
	appendSeconds prometheus.Histogram
	dots          *prometheus.CounterVec
	dotSeconds    *prometheus.HistogramVec
	allocs        *prometheus.CounterVec
	allocBytes    prometheus.Counter
}

// New registers the collector's metrics with reg.
func New(reg prometheus.Registerer, optFns ...Option) *Collector {
	o := options{
		namespace: "sparserow",
		buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
	}
	for _, fn := range optFns {
		fn(&o)
	}

	f := promauto.With(reg)

	return &Collector{
		spawns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "units_spawned_total",
			Help:      "Hinted units spawned, by target partition and whether the hint was honored",
		}, []string{"partition", "honored"}),
		accesses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "row_accesses_total",
			Help:      "Row appends, by owning partition and whether they ran on it",
		}, []string{"partition", "locality"}),
		appends: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "appends_total",
			Help:      "Row appends, by status",
		}, []string{"status"}),
		appendEntries: f.NewCounter(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "appended_entries_total",
			Help:      "Entries appended to rows",
		}),
		appendSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Name:      "append_duration_seconds",
			Help:      "Latency of a single row append",
			Buckets:   o.buckets,
		}),
		dots: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "dots_total",
			Help:      "Row merges, by status and mode",
		}, []string{"status", "mode"}),
		dotSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Name:      "dot_duration_seconds",
			Help:      "Latency of a row merge",
			Buckets:   o.buckets,
		}, []string{"mode"}),
		allocs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "allocations_total",
			Help:      "Matrix storage reservations, by status",
		}, []string{"status"}),
		allocBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "allocated_bytes_total",
			Help:      "Bytes reserved for row storage",
		}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func mode(scratch bool) string {
	if scratch {
		return "scratch"
	}
	return "direct"
}

// RecordSpawn implements sparserow.MetricsCollector.
func (c *Collector) RecordSpawn(partition int, honored bool) {
	c.spawns.WithLabelValues(strconv.Itoa(partition), strconv.FormatBool(honored)).Inc()
}

// RecordAccess implements sparserow.MetricsCollector.
func (c *Collector) RecordAccess(partition int, local bool) {
	locality := "remote"
	if local {
		locality = "local"
	}
	c.accesses.WithLabelValues(strconv.Itoa(partition), locality).Inc()
}

// RecordAppend implements sparserow.MetricsCollector.
func (c *Collector) RecordAppend(entries int, duration time.Duration, err error) {
	c.appends.WithLabelValues(status(err)).Inc()
	if err == nil {
		c.appendEntries.Add(float64(entries))
	}
	c.appendSeconds.Observe(duration.Seconds())
}

// RecordDot implements sparserow.MetricsCollector.
func (c *Collector) RecordDot(duration time.Duration, scratch bool, err error) {
	c.dots.WithLabelValues(status(err), mode(scratch)).Inc()
	c.dotSeconds.WithLabelValues(mode(scratch)).Observe(duration.Seconds())
}

// RecordAlloc implements sparserow.MetricsCollector.
func (c *Collector) RecordAlloc(bytes int64, err error) {
	c.allocs.WithLabelValues(status(err)).Inc()
	if err == nil {
		c.allocBytes.Add(float64(bytes))
	}
}
