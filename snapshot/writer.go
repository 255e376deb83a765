package snapshot

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/sparserow/internal/conv"
	ihash "github.com/hupe1980/sparserow/internal/hash"
	"github.com/hupe1980/sparserow/internal/resource"
	"github.com/hupe1980/sparserow/internal/sparse"
)

// Source is the matrix being written.
type Source interface {
	Rows() int
	Partitions() int
	// Written returns the rows that hold at least one entry.
	Written() *roaring.Bitmap
	// Row returns row i's entries.
	Row(i int) []sparse.Entry
}

type options struct {
	rc *resource.Controller
}

// Option configures snapshot IO.
type Option func(*options)

// WithResourceController throttles snapshot IO through rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

func applyOptions(optFns []Option) options {
	var o options
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// countingWriter counts bytes written to w.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Write serializes every written row of src to w and returns the number of
// bytes written.
func Write(ctx context.Context, w io.Writer, src Source, c Compression, optFns ...Option) (int64, error) {
	o := applyOptions(optFns)

	if !c.valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedCompression, c)
	}

	parts, err := conv.IntToUint32(src.Partitions())
	if err != nil {
		return 0, err
	}
	rows, err := conv.IntToUint64(src.Rows())
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: resource.NewRateLimitedWriter(ctx, w, o.rc)}

	h := Header{Version: Version, Compression: c, Partitions: parts, Rows: rows}
	if _, err := cw.Write(h.marshal()); err != nil {
		return cw.n, err
	}

	zw, err := compressor(cw, c)
	if err != nil {
		return cw.n, err
	}

	sum := ihash.NewCRC32C()
	bw := bufio.NewWriter(io.MultiWriter(zw, sum))
	if err := writeBody(ctx, bw, src); err != nil {
		_ = zw.Close()
		return cw.n, err
	}
	if err := bw.Flush(); err != nil {
		_ = zw.Close()
		return cw.n, err
	}
	if err := writeTrailer(zw, sum); err != nil {
		_ = zw.Close()
		return cw.n, err
	}
	if err := zw.Close(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

func writeBody(ctx context.Context, bw *bufio.Writer, src Source) error {
	written := src.Written()
	written.RunOptimize()

	bm, err := written.ToBytes()
	if err != nil {
		return err
	}
	bmLen, err := conv.IntToUint32(len(bm))
	if err != nil {
		return err
	}

	var scratch [binary.MaxVarintLen64]byte

	binary.LittleEndian.PutUint32(scratch[:4], bmLen)
	if _, err := bw.Write(scratch[:4]); err != nil {
		return err
	}
	if _, err := bw.Write(bm); err != nil {
		return err
	}

	putUvarint := func(v uint64) error {
		_, err := bw.Write(scratch[:binary.PutUvarint(scratch[:], v)])
		return err
	}
	putVarint := func(v int64) error {
		_, err := bw.Write(scratch[:binary.PutVarint(scratch[:], v)])
		return err
	}

	it := written.Iterator()
	for n := 0; it.HasNext(); n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		i := int(it.Next())
		entries := src.Row(i)
		if !sparse.IsSorted(entries) {
			return fmt.Errorf("%w: row %d", ErrUnsortedRow, i)
		}

		if err := putUvarint(uint64(len(entries))); err != nil {
			return err
		}

		var prev sparse.Index
		for k, e := range entries {
			if k == 0 {
				err = putVarint(e.Col)
			} else {
				// Strictly increasing, so the delta is positive.
				err = putUvarint(uint64(e.Col - prev)) //nolint:gosec // checked by IsSorted
			}
			if err != nil {
				return err
			}
			prev = e.Col
		}
		for _, e := range entries {
			if err := putVarint(e.Val); err != nil {
				return err
			}
		}
	}
	return nil
}
