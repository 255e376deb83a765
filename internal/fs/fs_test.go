package fs

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.srow")

	err := WriteAtomic(Default, path, 0o644, func(w io.Writer) error {
		_, err := w.Write([]byte("hello"))
		return err
	})
	require.NoError(t, err)

	f, err := Open(Default, path)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = Default.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteAtomic_Faults(t *testing.T) {
	tests := []struct {
		name  string
		fault Fault
	}{
		{"write", Fault{FailAfterBytes: 3}},
		{"sync", Fault{FailAfterBytes: -1, FailOnSync: true}},
		{"close", Fault{FailAfterBytes: -1, FailOnClose: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "a.srow")

			ffs := NewFaultyFS(nil)
			ffs.AddRule(".tmp", tt.fault)

			err := WriteAtomic(ffs, path, 0o644, func(w io.Writer) error {
				_, err := w.Write([]byte("hello"))
				return err
			})
			require.ErrorIs(t, err, ErrInjected)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestWriteAtomic_CallbackError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.srow")

	err := WriteAtomic(Default, path, 0o644, func(io.Writer) error { return assert.AnError })
	require.ErrorIs(t, err, assert.AnError)

	_, err = Default.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFaultyFS_PassThrough(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule("other", Fault{FailAfterBytes: 0})

	path := filepath.Join(dir, "plain")
	f, err := ffs.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	info, err := ffs.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size())

	require.NoError(t, ffs.Rename(path, path+"2"))
	require.NoError(t, ffs.Remove(path+"2"))
}
