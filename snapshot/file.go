package snapshot

import (
	"context"
	"io"

	"github.com/hupe1980/sparserow/internal/fs"
	"github.com/hupe1980/sparserow/internal/sparse"
)

// WriteFile writes a snapshot of src to path. The file is written to a
// temporary sibling and renamed into place after it has been synced, so
// path either keeps its previous content or holds the complete snapshot.
// A nil fsys uses the local file system.
func WriteFile(ctx context.Context, fsys fs.FileSystem, path string, src Source, c Compression, optFns ...Option) (int64, error) {
	if fsys == nil {
		fsys = fs.Default
	}

	var n int64
	err := fs.WriteAtomic(fsys, path, 0o644, func(w io.Writer) error {
		var err error
		n, err = Write(ctx, w, src, c, optFns...)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ReadFile reads the snapshot stored at path, see ReadAll.
func ReadFile(ctx context.Context, fsys fs.FileSystem, path string, optFns ...Option) (Header, map[int][]sparse.Entry, error) {
	if fsys == nil {
		fsys = fs.Default
	}

	f, err := fs.Open(fsys, path)
	if err != nil {
		return Header{}, nil, err
	}
	defer f.Close()

	return ReadAll(ctx, f, optFns...)
}
