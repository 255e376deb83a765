// Package testutil provides testing utilities for sparserow.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Rows
//
//	rng := testutil.NewRNG(seed)
//	row := rng.SparseRow(1024, 0.05)   // sorted, duplicate-free
//	rows := rng.SparseRows(64, 1024, 0.05)
//
// # Reference Dot Product
//
//	want := testutil.ReferenceDot(a, b) // map-based, independent of the merge
package testutil
