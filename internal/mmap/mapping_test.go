package mmap

import (
	"testing"

	"github.com/hupe1980/sparserow/internal/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapAnon(t *testing.T) {
	m, err := MapAnon(4096)
	require.NoError(t, err)

	data := m.Bytes()
	require.Len(t, data, 4096)
	assert.Equal(t, 4096, m.Size())
	assert.True(t, mem.IsAligned(data))

	for _, b := range data {
		require.Zero(t, b)
	}
	data[0], data[4095] = 1, 2
	assert.Equal(t, byte(2), m.Bytes()[4095])

	assert.NoError(t, m.Advise(AccessWillNeed))
	assert.NoError(t, m.Advise(AccessSequential))

	require.NoError(t, m.Close())
	assert.True(t, m.Closed())
	assert.Nil(t, m.Bytes())
	assert.ErrorIs(t, m.Advise(AccessRandom), ErrClosed)

	// Idempotent.
	assert.NoError(t, m.Close())
}

func TestMapAnon_InvalidSize(t *testing.T) {
	_, err := MapAnon(0)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = MapAnon(-1)
	assert.ErrorIs(t, err, ErrInvalidSize)
}
