package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store implementation for testing.
// Thread-safe for concurrent reads and writes.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates a new in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
	}
}

// Open opens a blob for reading.
func (m *MemoryStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[name]
	if !ok {
		return nil, ErrNotFound
	}

	// Stored blobs are never mutated, so readers can share them.
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Create creates a new writable blob.
func (m *MemoryStore) Create(_ context.Context, name string) (WritableBlob, error) {
	return &memoryWritableBlob{
		store: m,
		name:  name,
	}, nil
}

// Delete removes a blob.
func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, name)
	return nil
}

// List returns all blobs matching the prefix.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.blobs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// memoryWritableBlob implements WritableBlob for in-memory writes.
type memoryWritableBlob struct {
	store *MemoryStore
	name  string
	buf   bytes.Buffer
	done  bool
}

func (w *memoryWritableBlob) Write(p []byte) (int, error) {
	if w.done {
		return 0, io.ErrClosedPipe
	}
	return w.buf.Write(p)
}

func (w *memoryWritableBlob) Close() error {
	if w.done {
		return errors.New("blobstore: blob already closed")
	}
	w.done = true

	w.store.mu.Lock()
	defer w.store.mu.Unlock()

	w.store.blobs[w.name] = bytes.Clone(w.buf.Bytes())
	return nil
}

func (w *memoryWritableBlob) Abort() error {
	w.done = true
	w.buf.Reset()
	return nil
}

// MemoryCatalog is an in-process Catalog.
type MemoryCatalog struct {
	mu       sync.Mutex
	versions []string
}

// NewMemoryCatalog returns an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{}
}

// Commit appends name as the next version. Versions start at 1.
func (c *MemoryCatalog) Commit(_ context.Context, name string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.versions = append(c.versions, name)
	return uint64(len(c.versions)), nil
}

// Latest returns the newest committed version.
func (c *MemoryCatalog) Latest(_ context.Context) (uint64, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.versions) == 0 {
		return 0, "", ErrNoSnapshot
	}
	return uint64(len(c.versions)), c.versions[len(c.versions)-1], nil
}
