// Command rowdot builds two partitioned sparse-row matrices, fills one row
// of each from a unit hinted to the row's owner, and prints their dot
// product together with where each build unit ran.
//
//	rowdot --rows 16 --partitions 8 --row-a 2 --row-b 13
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hupe1980/sparserow"
	"github.com/hupe1980/sparserow/promcollector"
	"github.com/hupe1980/sparserow/snapshot"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Options are the command line flags.
type Options struct {
	Rows        int    `long:"rows" default:"16" env:"ROWDOT_ROWS" description:"number of rows of each matrix"`
	Partitions  int    `short:"p" long:"partitions" env:"SPARSEROW_PARTITIONS" description:"number of memory partitions (default: available CPUs)"`
	RowA        int    `long:"row-a" default:"2" description:"row of matrix A to build"`
	RowB        int    `long:"row-b" default:"13" description:"row of matrix B to build"`
	Scratch     bool   `long:"scratch" description:"copy row B into a buffer local to row A's partition before merging"`
	IgnoreHints bool   `long:"ignore-hints" description:"run every unit wherever the Go scheduler puts it"`
	Validate    bool   `long:"validate" description:"check entry order on append"`
	MemoryLimit int64  `long:"memory-limit" env:"ROWDOT_MEMORY_LIMIT" description:"byte limit for row storage and scratch buffers (0: unlimited)"`
	LogLevel    string `long:"log-level" default:"warn" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"log level"`
	LogFormat   string `long:"log-format" default:"text" choice:"text" choice:"json" description:"log output format"`
	Metrics     bool   `long:"metrics" description:"print Prometheus metrics on exit"`
	Snapshot    string `long:"snapshot" value-name:"FILE" description:"write matrix A to FILE and verify it loads back"`
	Compression string `long:"compression" default:"zstd" choice:"none" choice:"lz4" choice:"zstd" description:"snapshot compression"`

	Archive ArchiveOptions `group:"Archive" namespace:"archive" env-namespace:"ROWDOT_ARCHIVE"`
}

func main() {
	var opts Options

	if _, err := flags.Parse(&opts); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "rowdot:", err)
		os.Exit(1)
	}
}

// demoRow returns the fixed pattern for row i: even rows and odd rows share
// columns 7, 14 and 27.
func demoRow(i int) []sparserow.Entry {
	cols := []sparserow.Index{0, 3, 5, 7, 12, 14, 27, 31}
	if i%2 == 1 {
		cols = []sparserow.Index{1, 7, 10, 14, 18, 27, 28}
	}

	row := make([]sparserow.Entry, len(cols))
	for k, c := range cols {
		row[k] = sparserow.Entry{Col: c, Val: 1}
	}
	return row
}

func newLogger(format, levelName string) (*sparserow.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return nil, err
	}

	switch format {
	case "", "text":
		return sparserow.NewTextLogger(level), nil
	case "json":
		return sparserow.NewJSONLogger(level), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

func run(ctx context.Context, opts Options, out io.Writer) error {
	logger, err := newLogger(opts.LogFormat, opts.LogLevel)
	if err != nil {
		return err
	}

	parts := opts.Partitions
	if parts <= 0 {
		parts = sparserow.DiscoverPartitions()
	}

	var inner sparserow.Placer = sparserow.IgnoreHints{}
	if !opts.IgnoreHints {
		p, err := sparserow.PlatformPlacer(parts)
		if err != nil {
			logger.Warn("thread affinity unavailable, ignoring hints", "error", err)
		} else {
			inner = p
		}
	}
	rec := sparserow.NewRecorder(inner)

	reg := prometheus.NewRegistry()

	optFns := []sparserow.Option{
		sparserow.WithPartitions(parts),
		sparserow.WithPlacer(rec),
		sparserow.WithScratch(opts.Scratch),
		sparserow.WithValidation(opts.Validate),
		sparserow.WithMemoryLimit(opts.MemoryLimit),
		sparserow.WithLogger(logger),
	}
	if opts.Metrics {
		optFns = append(optFns, sparserow.WithMetricsCollector(promcollector.New(reg)))
	}

	rt, err := sparserow.NewRuntime(optFns...)
	if err != nil {
		return err
	}
	defer rt.Close()

	if opts.RowA < 0 || opts.RowA >= opts.Rows || opts.RowB < 0 || opts.RowB >= opts.Rows {
		return fmt.Errorf("rows %d and %d must be in [0,%d)", opts.RowA, opts.RowB, opts.Rows)
	}

	a, err := rt.NewMatrix(ctx, opts.Rows)
	if err != nil {
		return fmt.Errorf("matrix A: %w", err)
	}
	defer a.Close()

	b, err := rt.NewMatrix(ctx, opts.Rows)
	if err != nil {
		return fmt.Errorf("matrix B: %w", err)
	}
	defer b.Close()

	// Both builds run in one scope, each hinted to its row's owner.
	var locA, locB sparserow.Locality

	g := rt.Fork(ctx)
	g.Hint(a.RowHint(opts.RowA))
	g.Spawn(func(ctx context.Context) error {
		locA, _ = sparserow.LocalityFrom(ctx)
		return a.AppendLocal(ctx, opts.RowA, demoRow(opts.RowA))
	})
	g.Hint(b.RowHint(opts.RowB))
	g.Spawn(func(ctx context.Context) error {
		locB, _ = sparserow.LocalityFrom(ctx)
		return b.AppendLocal(ctx, opts.RowB, demoRow(opts.RowB))
	})
	if err := g.Join(); err != nil {
		return err
	}

	fmt.Fprintf(out, "A build started on partition %d (pinned: %t)\n", locA.Partition, locA.Honored)
	fmt.Fprintf(out, "B build started on partition %d (pinned: %t)\n", locB.Partition, locB.Honored)

	v, err := rt.Dot(ctx, a, opts.RowA, b, opts.RowB)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "a: %d\n", v)

	hinted, honored := rec.Total()
	fmt.Fprintf(out, "units: %d hinted, %d pinned\n", hinted, honored)

	if opts.Snapshot != "" {
		if err := writeSnapshot(ctx, rt, a, opts, out); err != nil {
			return err
		}
	}

	if opts.Archive.URL != "" {
		if err := publishArchive(ctx, rt, a, opts, out); err != nil {
			return err
		}
	}

	if opts.Metrics {
		if err := dumpMetrics(reg, out); err != nil {
			return err
		}
	}
	return nil
}

func writeSnapshot(ctx context.Context, rt *sparserow.Runtime, m *sparserow.Matrix, opts Options, out io.Writer) error {
	c, err := snapshot.ParseCompression(opts.Compression)
	if err != nil {
		return err
	}

	n, err := m.SaveFile(ctx, opts.Snapshot, c)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	loaded, err := rt.LoadFile(ctx, opts.Snapshot)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	defer loaded.Close()

	if !loaded.Written().Equals(m.Written()) {
		return errors.New("load snapshot: written rows differ")
	}

	fmt.Fprintf(out, "snapshot: %s, %d bytes, %s, %d rows written\n",
		opts.Snapshot, n, c, loaded.Written().GetCardinality())
	return nil
}

func dumpMetrics(g prometheus.Gatherer, out io.Writer) error {
	mfs, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			return err
		}
	}
	return nil
}
