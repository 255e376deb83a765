package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/sparserow/internal/fs"
)

const tmpSuffix = ".tmp"

// LocalStore implements Store using a local directory.
// Blobs are written next to their final name and renamed into place on Close.
type LocalStore struct {
	root string
	fsys fs.FileSystem
}

// NewLocalStore creates a new LocalStore rooted at the given directory,
// creating it if needed. A nil fsys uses the local file system.
func NewLocalStore(root string, fsys fs.FileSystem) (*LocalStore, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	if err := fsys.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: root, fsys: fsys}, nil
}

func (s *LocalStore) path(name string) (string, error) {
	if name == "" || strings.HasSuffix(name, tmpSuffix) || !filepath.IsLocal(name) {
		return "", errors.New("blobstore: invalid blob name " + name)
	}
	return filepath.Join(s.root, name), nil
}

// Open opens a blob for reading.
func (s *LocalStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	return fs.Open(s.fsys, path)
}

// Create starts writing a blob.
func (s *LocalStore) Create(_ context.Context, name string) (WritableBlob, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	f, err := s.fsys.OpenFile(path+tmpSuffix, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &localWritableBlob{fsys: s.fsys, f: f, path: path}, nil
}

// Delete removes a blob.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := s.fsys.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// List returns the blobs in the root directory with the given prefix.
// Blobs still being written are not listed.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	entries, err := s.fsys.ReadDir(s.root)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasSuffix(name, tmpSuffix) || !strings.HasPrefix(name, prefix) {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

type localWritableBlob struct {
	fsys fs.FileSystem
	f    fs.File
	path string
	done atomic.Bool
}

func (b *localWritableBlob) Write(p []byte) (int, error) {
	if b.done.Load() {
		return 0, io.ErrClosedPipe
	}
	return b.f.Write(p)
}

// Close syncs the temporary file and renames it to the blob name.
func (b *localWritableBlob) Close() error {
	if !b.done.CompareAndSwap(false, true) {
		return io.ErrClosedPipe
	}

	tmp := b.path + tmpSuffix
	if err := b.f.Sync(); err != nil {
		return errors.Join(err, b.f.Close(), b.fsys.Remove(tmp))
	}
	if err := b.f.Close(); err != nil {
		return errors.Join(err, b.fsys.Remove(tmp))
	}
	return b.fsys.Rename(tmp, b.path)
}

func (b *localWritableBlob) Abort() error {
	if !b.done.CompareAndSwap(false, true) {
		return nil
	}
	return errors.Join(b.f.Close(), b.fsys.Remove(b.path+tmpSuffix))
}
