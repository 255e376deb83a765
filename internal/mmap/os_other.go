//go:build !unix

package mmap

import "github.com/hupe1980/sparserow/internal/mem"

// Without mmap the region lives on the Go heap. It is pointer-free and
// aligned like a page mapping would be for the entries laid over it.
func osMapAnon(size int) ([]byte, func([]byte) error, error) {
	return mem.AllocAligned(size), nil, nil
}

func osAdvise([]byte, AccessPattern) error {
	return nil
}
