package minio

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/hupe1980/sparserow/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMinioStore_Integration requires a running MinIO instance at
// MINIO_ENDPOINT (default localhost:9000) with the default credentials.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}

	ctx := context.Background()

	store, err := Dial(ctx, endpoint, "minioadmin", "minioadmin", false, "test-sparserow", "test-prefix/")
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	wb, err := store.Create(ctx, "m-1.srow")
	require.NoError(t, err)
	_, err = io.Copy(wb, strings.NewReader("streamed data"))
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	r, err := store.Open(ctx, "m-1.srow")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "streamed data", string(data))

	names, err := store.List(ctx, "m-")
	require.NoError(t, err)
	assert.Contains(t, names, "m-1.srow")

	aborted, err := store.Create(ctx, "m-2.srow")
	require.NoError(t, err)
	_, err = aborted.Write([]byte("half"))
	require.NoError(t, err)
	require.NoError(t, aborted.Abort())

	_, err = store.Open(ctx, "m-2.srow")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "m-1.srow"))
	_, err = store.Open(ctx, "m-1.srow")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_Key(t *testing.T) {
	s := NewStore(nil, "bucket", "root/")
	assert.Equal(t, "root/m-1.srow", s.key("m-1.srow"))
	assert.Equal(t, "m-1.srow", NewStore(nil, "bucket", "").key("m-1.srow"))
}
