package partition

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
)

// EnvPartitions overrides the discovered partition count.
const EnvPartitions = "SPARSEROW_PARTITIONS"

// ID identifies a partition in [0, P).
type ID int

// Placement is the (partition, slot) pair that stores a logical row.
type Placement struct {
	Partition ID
	Slot      int
}

// Layout describes a fixed partition count.
type Layout struct {
	partitions int
}

// NewLayout returns a layout with the given number of partitions.
// It panics if partitions < 1.
func NewLayout(partitions int) Layout {
	if partitions < 1 {
		panic(fmt.Sprintf("partition: invalid partition count %d", partitions))
	}
	return Layout{partitions: partitions}
}

// Discover returns the partition count of the running process.
//
// SPARSEROW_PARTITIONS wins when set to a positive integer; otherwise the
// number of CPUs usable by the scheduler is used.
func Discover() int {
	if v := os.Getenv(EnvPartitions); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return max(runtime.GOMAXPROCS(0), 1)
}

// Partitions returns P.
func (l Layout) Partitions() int {
	return l.partitions
}

// Owner returns the partition that owns row i.
func (l Layout) Owner(i int) ID {
	return ID(i % l.partitions)
}

// Slot returns the position of row i inside its owner's local array.
func (l Layout) Slot(i int) int {
	return i / l.partitions
}

// Placement returns Owner(i) and Slot(i) together.
func (l Layout) Placement(i int) Placement {
	return Placement{Partition: l.Owner(i), Slot: l.Slot(i)}
}

// Index is the inverse of Placement.
func (l Layout) Index(p ID, slot int) int {
	return slot*l.partitions + int(p)
}

// RowsPerPartition returns the per-partition array length for nrows rows.
//
// The size is nrows/P + nrows%P, which is never smaller than ceil(nrows/P).
func (l Layout) RowsPerPartition(nrows int) int {
	if nrows <= 0 {
		return 0
	}
	return l.Slot(nrows) + int(l.Owner(nrows))
}

// Occupied returns how many of the first nrows rows are owned by p.
// Those rows occupy slots [0, Occupied).
func (l Layout) Occupied(p ID, nrows int) int {
	if nrows <= int(p) {
		return 0
	}
	return (nrows-int(p)-1)/l.partitions + 1
}

// Valid reports whether p names a partition of this layout.
func (l Layout) Valid(p ID) bool {
	return p >= 0 && int(p) < l.partitions
}
