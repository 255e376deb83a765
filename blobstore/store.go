package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

var (
	// ErrNoSnapshot is returned by Catalog.Latest before the first commit.
	ErrNoSnapshot = errors.New("blobstore: no committed snapshot")
	// ErrConcurrentCommit is returned when another writer committed the same version.
	ErrConcurrentCommit = errors.New("blobstore: concurrent commit")
)

// Store is an abstraction for named snapshot blobs.
// Implementations must be safe for concurrent use.
type Store interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Create starts writing a blob. The blob becomes visible on Close.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// WritableBlob is a blob being written.
type WritableBlob interface {
	io.Writer
	// Close commits the blob.
	Close() error
	// Abort discards everything written. The blob never becomes visible.
	Abort() error
}

// Catalog tracks the latest committed snapshot.
// Implementations must be safe for concurrent use.
type Catalog interface {
	// Commit records name as the next version and returns that version.
	Commit(ctx context.Context, name string) (uint64, error)
	// Latest returns the newest version and its blob name.
	Latest(ctx context.Context) (uint64, string, error)
}
