package snapshot

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/sparserow/internal/conv"
	"github.com/hupe1980/sparserow/internal/resource"
	"github.com/hupe1980/sparserow/internal/sparse"
)

// Reader decodes a snapshot row by row.
//
//	rd, err := snapshot.NewReader(ctx, r)
//	...
//	defer rd.Close()
//	for rd.Next() {
//		i, entries := rd.Row()
//	}
//	if err := rd.Err(); err != nil { ... }
type Reader struct {
	ctx     context.Context
	header  Header
	written *roaring.Bitmap
	it      roaring.IntPeekable
	br      *checksumReader
	release func()
	done    bool

	n       int
	row     int
	entries []sparse.Entry
	err     error
}

// NewReader reads the header and the written-row bitmap from r.
func NewReader(ctx context.Context, r io.Reader, optFns ...Option) (*Reader, error) {
	o := applyOptions(optFns)
	rl := resource.NewRateLimitedReader(ctx, r, o.rc)

	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(rl, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: short header", ErrBadMagic)
		}
		return nil, err
	}

	h, err := unmarshalHeader(buf)
	if err != nil {
		return nil, err
	}
	// Written rows are uint32 bitmap members; a larger count cannot come
	// from a writer and must not reach row allocation.
	if h.Rows > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d rows in header", ErrCorrupt, h.Rows)
	}
	if _, err := conv.Uint64ToInt(h.Rows); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	zr, release, err := decompressor(rl, h.Compression)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	rd := &Reader{
		ctx:     ctx,
		header:  h,
		br:      newChecksumReader(bufio.NewReader(zr)),
		release: release,
	}

	if err := rd.readBitmap(); err != nil {
		rd.Close()
		return nil, err
	}
	return rd, nil
}

func (rd *Reader) readBitmap() error {
	var lenBuf [4]byte
	if _, err := io.ReadFull(rd.br, lenBuf[:]); err != nil {
		return corrupt(err)
	}

	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > maxBitmapBytes {
		return fmt.Errorf("%w: bitmap length %d", ErrCorrupt, n)
	}

	bm := make([]byte, n)
	if _, err := io.ReadFull(rd.br, bm); err != nil {
		return corrupt(err)
	}

	rb := roaring.New()
	if err := rb.UnmarshalBinary(bm); err != nil {
		return fmt.Errorf("%w: bitmap: %w", ErrCorrupt, err)
	}
	if !rb.IsEmpty() && uint64(rb.Maximum()) >= rd.header.Rows {
		return fmt.Errorf("%w: row %d outside %d rows", ErrCorrupt, rb.Maximum(), rd.header.Rows)
	}

	rd.written = rb
	rd.it = rb.Iterator()
	return nil
}

func corrupt(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrCorrupt, io.ErrUnexpectedEOF)
	}
	return err
}

// Header returns the snapshot header.
func (rd *Reader) Header() Header {
	return rd.header
}

// Rows returns the number of logical rows.
func (rd *Reader) Rows() int {
	return int(rd.header.Rows) //nolint:gosec // checked in NewReader
}

// Written returns the rows stored in the snapshot.
func (rd *Reader) Written() *roaring.Bitmap {
	return rd.written
}

// Next decodes the next row. It returns false at the end or on error.
// Reaching the end verifies the body checksum.
func (rd *Reader) Next() bool {
	if rd.err != nil || rd.it == nil || rd.done {
		return false
	}
	if !rd.it.HasNext() {
		rd.done = true
		rd.err = rd.br.verify()
		return false
	}

	if rd.n%1024 == 0 {
		if err := rd.ctx.Err(); err != nil {
			rd.err = err
			return false
		}
	}
	rd.n++

	row := int(rd.it.Next())
	entries, err := rd.readRow()
	if err != nil {
		rd.err = fmt.Errorf("row %d: %w", row, err)
		return false
	}

	rd.row, rd.entries = row, entries
	return true
}

func (rd *Reader) readRow() ([]sparse.Entry, error) {
	count, err := binary.ReadUvarint(rd.br)
	if err != nil {
		return nil, corrupt(err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: empty row marked written", ErrCorrupt)
	}

	// The count is untrusted; grow as entries arrive.
	entries := make([]sparse.Entry, 0, min(count, 1<<12))

	var prev sparse.Index
	for k := range count {
		var col sparse.Index
		if k == 0 {
			col, err = binary.ReadVarint(rd.br)
		} else {
			var delta uint64
			delta, err = binary.ReadUvarint(rd.br)
			col = prev + sparse.Index(delta) //nolint:gosec // wraps like the writer
			if err == nil && (delta == 0 || col <= prev) {
				return nil, fmt.Errorf("%w: columns not increasing", ErrCorrupt)
			}
		}
		if err != nil {
			return nil, corrupt(err)
		}
		entries = append(entries, sparse.Entry{Col: col})
		prev = col
	}

	for k := range entries {
		v, err := binary.ReadVarint(rd.br)
		if err != nil {
			return nil, corrupt(err)
		}
		entries[k].Val = v
	}
	return entries, nil
}

// Row returns the row decoded by the last successful Next.
func (rd *Reader) Row() (int, []sparse.Entry) {
	return rd.row, rd.entries
}

// Err returns the first error encountered by Next.
func (rd *Reader) Err() error {
	return rd.err
}

// Close releases the decoder. It does not close the underlying reader.
func (rd *Reader) Close() {
	if rd.release != nil {
		rd.release()
		rd.release = nil
	}
}

// ReadAll decodes a whole snapshot into a map from row to entries.
func ReadAll(ctx context.Context, r io.Reader, optFns ...Option) (Header, map[int][]sparse.Entry, error) {
	rd, err := NewReader(ctx, r, optFns...)
	if err != nil {
		return Header{}, nil, err
	}
	defer rd.Close()

	rows := make(map[int][]sparse.Entry, rd.Written().GetCardinality())
	for rd.Next() {
		i, entries := rd.Row()
		rows[i] = entries
	}
	if err := rd.Err(); err != nil {
		return Header{}, nil, err
	}
	return rd.Header(), rows, nil
}
