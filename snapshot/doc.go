// Package snapshot serializes the written rows of a sparse-row matrix.
//
// # Format
//
// A snapshot is an uncompressed header followed by a body compressed with
// the codec named in the header:
//
//	header: "SROW" | version u8 | compression u8 | partitions u32 | rows u64   (little endian)
//	body:   bitmapLen u32 | roaring bitmap of written rows
//	        per written row, ascending:
//	            count uvarint
//	            first column varint, then column deltas uvarint
//	            values varint
//
// Placement is not stored. The partition count in the header is
// informational; a snapshot can be loaded into any layout.
//
// # Compression
//
//   - CompressionNone: raw body
//   - CompressionLZ4: LZ4 frame (github.com/pierrec/lz4/v4)
//   - CompressionZstd: zstd stream (github.com/klauspost/compress/zstd)
//
// Both directions go through the rate-limited IO wrappers of
// internal/resource when a controller is configured.
package snapshot
