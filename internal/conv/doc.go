// Package conv provides checked integer conversions.
//
// Snapshot headers, varint payloads and roaring row ids are fixed-width,
// while row counts and indexes are int. Every conversion here fails with
// ErrOverflow instead of wrapping.
package conv
