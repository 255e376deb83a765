// Package hash provides the CRC32-Castagnoli checksum used to protect
// snapshot bodies. The Castagnoli polynomial is hardware accelerated on
// amd64 (SSE4.2) and arm64.
package hash
