// Package mem provides cache-line aligned heap buffers.
//
// Buffers handed to different partitions start on separate cache lines, so
// units running on different partitions never write to a shared line.
package mem
