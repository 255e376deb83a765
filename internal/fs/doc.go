// Package fs provides filesystem abstractions for snapshot files and fault
// injection in tests.
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test wrapper that fails writes, syncs or closes on demand
//
// WriteAtomic writes a file through a temporary sibling and renames it into
// place after a successful sync, so a failed write never leaves a partial
// file at the target path.
package fs
