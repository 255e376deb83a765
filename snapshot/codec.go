package snapshot

import (
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder(w io.Writer) *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		enc := v.(*zstd.Encoder)
		enc.Reset(w)
		return enc
	}
	enc, _ := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
	return enc
}

func getZstdDecoder(r io.Reader) (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		dec := v.(*zstd.Decoder)
		if err := dec.Reset(r); err != nil {
			return nil, err
		}
		return dec, nil
	}
	return zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// compressor wraps w with the body codec. Close flushes the codec; it does
// not close w.
func compressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	case CompressionZstd:
		return &pooledEncoder{getZstdEncoder(w)}, nil
	default:
		return nil, ErrUnsupportedCompression
	}
}

type pooledEncoder struct {
	enc *zstd.Encoder
}

func (p *pooledEncoder) Write(b []byte) (int, error) {
	return p.enc.Write(b)
}

func (p *pooledEncoder) Close() error {
	err := p.enc.Close()
	zstdEncoderPool.Put(p.enc)
	return err
}

// decompressor wraps r with the body codec. The returned release func
// must be called when reading is done.
func decompressor(r io.Reader, c Compression) (io.Reader, func(), error) {
	switch c {
	case CompressionNone:
		return r, func() {}, nil
	case CompressionLZ4:
		return lz4.NewReader(r), func() {}, nil
	case CompressionZstd:
		dec, err := getZstdDecoder(r)
		if err != nil {
			return nil, nil, err
		}
		return dec, func() { zstdDecoderPool.Put(dec) }, nil
	default:
		return nil, nil, ErrUnsupportedCompression
	}
}
