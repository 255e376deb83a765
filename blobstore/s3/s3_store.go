package s3

import (
	"context"
	"errors"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/sparserow/blobstore"
)

// Store implements blobstore.Store for S3.
type Store struct {
	client   Client
	bucket   string
	prefix   string
	uploader *manager.Uploader
	checksum bool
}

var _ blobstore.Store = (*Store)(nil)

// NewStore creates a new S3 blob store.
// rootPrefix is prepended to all keys (e.g. "my-matrix/").
func NewStore(client Client, bucket, rootPrefix string, cfg UploadConfig) *Store {
	return &Store{
		client:   client,
		bucket:   bucket,
		prefix:   rootPrefix,
		uploader: newUploader(client, cfg),
		checksum: cfg.EnableChecksum,
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open streams a blob.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return nil, mapNotFound(err)
	}
	return resp.Body, nil
}

// Size returns the size of a blob in bytes.
func (s *Store) Size(ctx context.Context, name string) (int64, error) {
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return 0, mapNotFound(err)
	}
	return aws.ToInt64(head.ContentLength), nil
}

// Create starts a streaming upload.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	return newStreamingWritableBlob(ctx, s.uploader, s.bucket, s.key(name), s.checksum), nil
}

// Delete removes a blob.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

// List returns the names below the store prefix that start with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.key(prefix)
	if prefix == "" && s.prefix != "" {
		fullPrefix = strings.TrimSuffix(s.prefix, "/") + "/"
	}

	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(fullPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			rel := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			rel = strings.TrimPrefix(rel, "/")
			if rel != "" {
				keys = append(keys, rel)
			}
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func mapNotFound(err error) error {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return blobstore.ErrNotFound
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return blobstore.ErrNotFound
	}
	return err
}
