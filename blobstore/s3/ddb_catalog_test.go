package s3

import (
	"context"
	"testing"

	"github.com/hupe1980/sparserow/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDDBCatalog_CommitAndLatest(t *testing.T) {
	ctx := context.Background()
	c := NewDDBCatalog(newMockDDBClient(), "snapshots", "s3://bucket/m")

	_, _, err := c.Latest(ctx)
	require.ErrorIs(t, err, blobstore.ErrNoSnapshot)

	for i, name := range []string{"m-1.srow", "m-2.srow", "m-3.srow"} {
		v, err := c.Commit(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), v)
	}

	v, name, err := c.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v)
	assert.Equal(t, "m-3.srow", name)
}

func TestDDBCatalog_SeparateBaseURIs(t *testing.T) {
	ctx := context.Background()
	client := newMockDDBClient()

	a := NewDDBCatalog(client, "snapshots", "s3://bucket/a")
	b := NewDDBCatalog(client, "snapshots", "s3://bucket/b")

	_, err := a.Commit(ctx, "a.srow")
	require.NoError(t, err)

	_, _, err = b.Latest(ctx)
	assert.ErrorIs(t, err, blobstore.ErrNoSnapshot)
}

func TestDDBCatalog_ConcurrentCommit(t *testing.T) {
	ctx := context.Background()
	client := newMockDDBClient()

	c := NewDDBCatalog(client, "snapshots", "s3://bucket/m")
	other := NewDDBCatalog(client, "snapshots", "s3://bucket/m")

	// Another writer commits between our Latest and our PutItem.
	client.beforePut = func() {
		client.beforePut = nil
		_, err := other.Commit(ctx, "theirs.srow")
		require.NoError(t, err)
	}

	_, err := c.Commit(ctx, "ours.srow")
	require.ErrorIs(t, err, blobstore.ErrConcurrentCommit)

	_, name, err := c.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "theirs.srow", name)

	v, err := c.Commit(ctx, "ours.srow")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)
}
