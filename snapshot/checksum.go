package snapshot

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash"
	"io"

	ihash "github.com/hupe1980/sparserow/internal/hash"
)

// The body is followed by the little endian CRC32C of its uncompressed bytes.
const trailerSize = 4

// checksumReader hashes every byte read through it.
type checksumReader struct {
	br      *bufio.Reader
	h       hash.Hash32
	pending []byte
}

func newChecksumReader(br *bufio.Reader) *checksumReader {
	return &checksumReader{br: br, h: ihash.NewCRC32C(), pending: make([]byte, 0, 4096)}
}

func (c *checksumReader) ReadByte() (byte, error) {
	b, err := c.br.ReadByte()
	if err != nil {
		return 0, err
	}
	c.pending = append(c.pending, b)
	if len(c.pending) == cap(c.pending) {
		c.flush()
	}
	return b, nil
}

func (c *checksumReader) Read(p []byte) (int, error) {
	c.flush()
	n, err := c.br.Read(p)
	_, _ = c.h.Write(p[:n])
	return n, err
}

func (c *checksumReader) flush() {
	if len(c.pending) > 0 {
		_, _ = c.h.Write(c.pending)
		c.pending = c.pending[:0]
	}
}

// verify reads the trailer and compares it with the bytes hashed so far.
func (c *checksumReader) verify() error {
	c.flush()

	var buf [trailerSize]byte
	if _, err := io.ReadFull(c.br, buf[:]); err != nil {
		return corrupt(err)
	}

	want := binary.LittleEndian.Uint32(buf[:])
	if got := c.h.Sum32(); got != want {
		return fmt.Errorf("%w: crc32c %08x, want %08x", ErrChecksumMismatch, got, want)
	}
	return nil
}

func writeTrailer(w io.Writer, h hash.Hash32) error {
	var buf [trailerSize]byte
	binary.LittleEndian.PutUint32(buf[:], h.Sum32())
	_, err := w.Write(buf[:])
	return err
}
