// Package alloc reserves one array per partition for a partitioned container.
//
// New fans out one unit per partition through the scheduler, each hinted to
// its partition, so every array is reserved and first touched by work running
// where the array will be used. Byte accounting is delegated to an Allocator.
// A Block is immutable after New and releases its arrays exactly once.
package alloc
