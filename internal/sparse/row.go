package sparse

import (
	"slices"
	"unsafe"
)

// Index is a column (and row) index.
type Index = int64

// Scalar is an entry value and the result type of Dot.
type Scalar = int64

// Entry is one (column, value) pair. It holds no pointers.
type Entry struct {
	Col Index
	Val Scalar
}

// EntrySize is the in-memory size of an Entry.
const EntrySize = int(unsafe.Sizeof(Entry{}))

// Row is a sparse vector with strictly increasing columns.
// The zero value is an empty row.
type Row struct {
	entries []Entry
}

// NewRow returns a row holding a copy of entries.
func NewRow(entries ...Entry) Row {
	return Row{entries: slices.Clone(entries)}
}

// Append adds entries to the end of the row, in order.
func (r *Row) Append(entries ...Entry) {
	r.entries = append(r.entries, entries...)
}

// Entries returns the row's entries. The slice must not be modified.
func (r *Row) Entries() []Entry {
	return r.entries
}

// Len returns the number of entries.
func (r *Row) Len() int {
	return len(r.entries)
}

// Last returns the entry with the greatest column.
func (r *Row) Last() (Entry, bool) {
	if len(r.entries) == 0 {
		return Entry{}, false
	}
	return r.entries[len(r.entries)-1], true
}

// Dot returns the dot product of r and o.
func (r *Row) Dot(o *Row) Scalar {
	return Dot(r.entries, o.entries)
}

// Reset drops all entries and the backing buffer.
func (r *Row) Reset() {
	r.entries = nil
}
