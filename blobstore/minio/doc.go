// Package minio provides a MinIO implementation of blobstore.Store for
// MinIO and other S3-compatible object stores.
//
// # Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
//	    Secure: false,
//	})
//	store := minioblob.NewStore(client, "snapshots", "matrix-a/")
package minio
