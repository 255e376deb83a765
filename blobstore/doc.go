// Package blobstore archives matrix snapshots outside the process.
//
// A Store holds named, immutable snapshot blobs. A Catalog records which
// blob is the latest committed snapshot, so a reader never observes a
// partially uploaded one.
//
// # Built-in Implementations
//
//   - LocalStore: local directory, writes are renamed into place
//   - MemoryStore: in-memory, for tests
//   - s3.Store: Amazon S3 with multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// Catalogs:
//
//   - MemoryCatalog: in-process version counter
//   - s3.DDBCatalog: DynamoDB conditional writes, safe for concurrent writers
package blobstore
