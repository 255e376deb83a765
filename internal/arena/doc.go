// Package arena provides per-partition scratch buffers for sparse merges.
//
// # Concurrency Model
//
// A Pool keeps one free list per partition, each guarded by its own mutex,
// since two merge units can run on the same partition at once. Get and Put
// are safe for concurrent use. Close must not race with Get.
//
// # Memory Management
//
// Buffers are carved from anonymous mappings (see internal/mmap) and are
// never touched by the pool itself, so their pages are placed by the first
// unit that writes them. Callers obtain a buffer from the unit running on the
// partition that will use it. Mapped bytes are accounted against a
// MemoryAcquirer and returned to it on Close.
package arena
