package resource

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.TryAcquireMemory(50))
	assert.Equal(t, int64(50), c.MemoryUsage())

	require.NoError(t, c.TryAcquireMemory(40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Acquire 20 (should fail - limit exceeded)
	err := c.TryAcquireMemory(20)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
	assert.Equal(t, int64(90), c.MemoryUsage())

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	require.NoError(t, c.TryAcquireMemory(20))
	assert.Equal(t, int64(60), c.MemoryUsage())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.TryAcquireMemory(1000))
	assert.Equal(t, int64(1000), c.MemoryUsage())
	assert.Equal(t, int64(0), c.MemoryLimit())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestController_NonPositive(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 10})
	assert.NoError(t, c.TryAcquireMemory(-1))
	assert.NoError(t, c.TryAcquireMemory(0))
	c.ReleaseMemory(-1)
	assert.Equal(t, int64(0), c.MemoryUsage())
}

func TestController_NilSafe(t *testing.T) {
	var c *Controller

	assert.NoError(t, c.TryAcquireMemory(100))
	c.ReleaseMemory(100)
	assert.Equal(t, int64(0), c.MemoryUsage())
	assert.Equal(t, int64(0), c.MemoryLimit())
	assert.NoError(t, c.AcquireIO(context.Background(), 100))
}

func TestController_IOLargerThanBurst(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	// Twice the burst is split into two waits instead of failing.
	require.NoError(t, c.AcquireIO(context.Background(), 2<<20))
}

func TestRateLimitedWriter(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 10000})

	var buf bytes.Buffer
	w := NewRateLimitedWriter(context.Background(), &buf, c)

	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", buf.String())
}

func TestRateLimitedReader(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 10000})

	r := NewRateLimitedReader(context.Background(), bytes.NewReader([]byte("hello world")), c)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))
}

func TestRateLimitedReader_ContextCanceled(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRateLimitedReader(ctx, bytes.NewReader([]byte("hello world")), c)

	_, err := r.Read(make([]byte, 16))
	assert.ErrorIs(t, err, context.Canceled)
}
