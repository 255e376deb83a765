// Package mmap provides anonymous memory mappings outside the Go heap.
//
// MapAnon returns a read-write private mapping. Scratch buffers for merges
// are carved from these mappings so that their pages are first touched, and
// therefore placed, by the partition that uses them. Only pointer-free data
// may be stored in a mapping.
//
// # Platform Support
//
//   - Unix: mmap(2)/munmap(2) with madvise(2) hints via golang.org/x/sys/unix
//   - Others: a heap-allocated byte slice; Advise is a no-op
//
// Close is idempotent. Bytes returns nil after Close.
package mmap
