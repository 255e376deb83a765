// Package partition maps logical row indexes onto memory partitions.
//
// Rows are assigned round-robin: row i lives on partition i mod P at slot
// i div P of that partition's local array. The mapping is pure arithmetic and
// never changes for the lifetime of a layout.
//
//	l := partition.NewLayout(8)
//	p := l.Owner(13) // 5
//	s := l.Slot(13)  // 1
package partition
