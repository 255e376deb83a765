package mem

import (
	"unsafe"
)

// Alignment is the cache line size buffers are aligned to.
const Alignment = 64

// AllocAligned allocates a zeroed byte slice of the given size whose first
// byte lies on an Alignment boundary. It returns nil for size <= 0.
//
// The backing array is over-allocated by Alignment bytes and kept alive by
// the returned slice.
func AllocAligned(size int) []byte {
	if size <= 0 {
		return nil
	}

	buf := make([]byte, size+Alignment)

	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // unsafe is required for memory alignment
	offset := (Alignment - (addr & (Alignment - 1))) & (Alignment - 1)

	return buf[offset : offset+uintptr(size) : offset+uintptr(size)]
}

// IsAligned reports whether b starts on an Alignment boundary.
// An empty slice is considered aligned.
func IsAligned(b []byte) bool {
	if len(b) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(&b[0]))&(Alignment-1) == 0 //nolint:gosec // address inspection only
}
