package mem

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocAligned(t *testing.T) {
	sizes := []int{1, 10, 63, 64, 65, 100, 1024, 4096}

	for _, size := range sizes {
		buf := AllocAligned(size)
		assert.Len(t, buf, size)
		assert.Equal(t, size, cap(buf))
		assert.True(t, IsAligned(buf), "size %d", size)

		for _, b := range buf {
			assert.Zero(t, b)
		}
	}

	assert.Nil(t, AllocAligned(0))
	assert.Nil(t, AllocAligned(-1))
}

func TestIsAligned(t *testing.T) {
	assert.True(t, IsAligned(nil))

	buf := AllocAligned(128)
	assert.False(t, IsAligned(buf[1:]))
	assert.True(t, IsAligned(buf[Alignment:]))
}

func BenchmarkAllocAligned(b *testing.B) {
	sizes := []int{64, 256, 1024, 4096}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("size=%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				_ = AllocAligned(size)
			}
		})
	}
}
