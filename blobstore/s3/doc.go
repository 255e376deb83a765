// Package s3 provides Amazon S3 implementations of blobstore.Store and a
// DynamoDB backed blobstore.Catalog.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("snapshots/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
// # Features
//
//   - Streaming multipart uploads with CRC32C checksums
//   - Aborted uploads never create an object
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
