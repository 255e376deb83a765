// Package sparserow provides a locality-aware partitioned sparse-row store.
//
// A Matrix distributes its rows round-robin over the memory partitions of a
// Runtime: row i lives on partition i mod P. Storage for each partition is
// reserved and first touched by work running on that partition, and every
// append or merge is scheduled onto the partition that owns the row it
// touches. Placement only affects where work runs, never what it computes.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, _ := sparserow.NewRuntime(sparserow.WithPartitions(8))
//	defer rt.Close()
//
//	m, _ := rt.NewMatrix(ctx, 16)
//	defer m.Close()
//
//	_ = m.Append(ctx, 2, []sparserow.Entry{{Col: 7, Val: 1}, {Col: 14, Val: 1}})
//	_ = m.Append(ctx, 13, []sparserow.Entry{{Col: 7, Val: 1}})
//
//	v, _ := rt.Dot(ctx, m, 2, m, 13) // 1
//
// # Partitions
//
// A partition is a disjoint subset of the CPUs available to the process. On
// Linux, units hinted to a partition run on an OS thread whose affinity mask
// is that subset, so memory they first touch is placed on the matching NUMA
// node. Elsewhere, or with WithIgnoreHints, hints are dropped and results are
// unchanged. The partition count defaults to GOMAXPROCS and can be overridden
// with WithPartitions or the SPARSEROW_PARTITIONS environment variable.
//
// # Build and Read Phases
//
// Each row has a single writer. Entries of a row must be appended in strictly
// increasing column order; WithValidation enables checks for this. Once all
// appends have returned, rows are read-only and Dot may be called from any
// number of goroutines.
//
// # Snapshots
//
// Matrix.WriteSnapshot and Runtime.LoadMatrix persist the written rows in a
// compressed format (see package snapshot). A snapshot can be loaded into a
// runtime with a different partition count.
package sparserow
