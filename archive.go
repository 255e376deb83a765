package sparserow

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/sparserow/blobstore"
	"github.com/hupe1980/sparserow/snapshot"
)

// Archive writes a snapshot to store under name. A failed write is aborted
// and leaves no blob behind.
func (m *Matrix) Archive(ctx context.Context, store blobstore.Store, name string, c snapshot.Compression) (int64, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}

	w, err := store.Create(ctx, name)
	if err != nil {
		return 0, err
	}

	n, err := snapshot.Write(ctx, w, matrixSource{m.store}, c, snapshot.WithResourceController(m.rt.rc))
	if err != nil {
		err = errors.Join(err, w.Abort())
	} else {
		err = w.Close()
	}
	if err != nil {
		m.rt.logger.LogSnapshot(ctx, "archive", m.Rows(), 0, err)
		return 0, fmt.Errorf("archive %s: %w", name, err)
	}

	m.rt.logger.LogSnapshot(ctx, "archive", m.Rows(), n, nil)
	return n, nil
}

// Publish archives the matrix under name and commits it to catalog as the
// latest snapshot. It returns the committed version.
func (m *Matrix) Publish(ctx context.Context, store blobstore.Store, catalog blobstore.Catalog, name string, c snapshot.Compression) (uint64, error) {
	if _, err := m.Archive(ctx, store, name, c); err != nil {
		return 0, err
	}

	v, err := catalog.Commit(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("publish %s: %w", name, err)
	}
	return v, nil
}

// LoadArchive reads the snapshot stored under name.
func (r *Runtime) LoadArchive(ctx context.Context, store blobstore.Store, name string) (*Matrix, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}

	rc, err := store.Open(ctx, name)
	if err != nil {
		r.logger.LogSnapshot(ctx, "load", 0, 0, err)
		return nil, err
	}
	defer rc.Close()

	h, rows, err := snapshot.ReadAll(ctx, rc, snapshot.WithResourceController(r.rc))
	return r.loaded(ctx, h, rows, err)
}

// LoadLatest reads the latest snapshot committed to catalog and returns it
// together with its version.
func (r *Runtime) LoadLatest(ctx context.Context, store blobstore.Store, catalog blobstore.Catalog) (*Matrix, uint64, error) {
	v, name, err := catalog.Latest(ctx)
	if err != nil {
		return nil, 0, err
	}

	m, err := r.LoadArchive(ctx, store, name)
	if err != nil {
		return nil, 0, fmt.Errorf("load version %d: %w", v, err)
	}
	return m, v, nil
}
