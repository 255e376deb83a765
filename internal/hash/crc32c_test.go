package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32C(t *testing.T) {
	// Check value from RFC 3720, B.4.
	assert.Equal(t, uint32(0xe3069283), CRC32C([]byte("123456789")))
	assert.Zero(t, CRC32C(nil))
}

func TestNewCRC32C_Streaming(t *testing.T) {
	data := []byte("sparse rows placed by partition")

	h := NewCRC32C()
	_, _ = h.Write(data[:7])
	_, _ = h.Write(data[7:])
	assert.Equal(t, CRC32C(data), h.Sum32())
}
