//go:build amd64 || arm64

package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntToUint32(t *testing.T) {
	tests := []struct {
		name    string
		in      int
		want    uint32
		wantErr bool
	}{
		{"zero", 0, 0, false},
		{"max", math.MaxUint32, math.MaxUint32, false},
		{"negative", -1, 0, true},
		{"too large", math.MaxUint32 + 1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IntToUint32(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrOverflow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSignedUnsigned(t *testing.T) {
	_, err := IntToUint64(-5)
	assert.ErrorIs(t, err, ErrOverflow)

	u, err := IntToUint64(5)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), u)

	_, err = Int64ToUint64(-1)
	assert.ErrorIs(t, err, ErrOverflow)

	u, err = Int64ToUint64(math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxInt64), u)

	_, err = Uint64ToInt64(math.MaxInt64 + 1)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Uint64ToInt(math.MaxUint64)
	assert.ErrorIs(t, err, ErrOverflow)

	i, err := Uint64ToInt(42)
	require.NoError(t, err)
	assert.Equal(t, 42, i)

	i, err = Uint32ToInt(math.MaxUint32)
	require.NoError(t, err)
	assert.Equal(t, math.MaxUint32, i)
}
