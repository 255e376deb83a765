package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBadMagic is returned when the input is not a snapshot.
	ErrBadMagic = errors.New("snapshot: bad magic")
	// ErrUnsupportedVersion is returned for snapshots written by a newer format.
	ErrUnsupportedVersion = errors.New("snapshot: unsupported version")
	// ErrUnsupportedCompression is returned for an unknown compression codec.
	ErrUnsupportedCompression = errors.New("snapshot: unsupported compression")
	// ErrCorrupt is returned when the body cannot be decoded.
	ErrCorrupt = errors.New("snapshot: corrupt data")
	// ErrChecksumMismatch is returned when the body does not match its trailer.
	ErrChecksumMismatch = fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	// ErrUnsortedRow is returned when a row to be written is not strictly increasing.
	ErrUnsortedRow = errors.New("snapshot: row not sorted")
)

const (
	// Version is the current format version.
	Version uint8 = 1

	headerSize = 18

	// maxBitmapBytes bounds the bitmap length read from untrusted input.
	maxBitmapBytes = 1 << 30
)

var magic = [4]byte{'S', 'R', 'O', 'W'}

// Compression selects the body codec.
type Compression uint8

const (
	// CompressionNone stores the body as is.
	CompressionNone Compression = 0
	// CompressionLZ4 stores the body as an LZ4 frame.
	CompressionLZ4 Compression = 1
	// CompressionZstd stores the body as a zstd stream.
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

func (c Compression) valid() bool {
	return c <= CompressionZstd
}

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedCompression, s)
	}
}

// Header is the fixed-size snapshot prefix.
type Header struct {
	Version     uint8
	Compression Compression
	Partitions  uint32
	Rows        uint64
}

func (h Header) marshal() []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:4], magic[:])
	buf[4] = h.Version
	buf[5] = uint8(h.Compression)
	binary.LittleEndian.PutUint32(buf[6:10], h.Partitions)
	binary.LittleEndian.PutUint64(buf[10:18], h.Rows)
	return buf
}

func unmarshalHeader(buf []byte) (Header, error) {
	if len(buf) < headerSize || [4]byte(buf[0:4]) != magic {
		return Header{}, ErrBadMagic
	}

	h := Header{
		Version:     buf[4],
		Compression: Compression(buf[5]),
		Partitions:  binary.LittleEndian.Uint32(buf[6:10]),
		Rows:        binary.LittleEndian.Uint64(buf[10:18]),
	}

	if h.Version == 0 || h.Version > Version {
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if !h.Compression.valid() {
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedCompression, h.Compression)
	}
	return h, nil
}
