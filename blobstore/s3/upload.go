package s3

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// UploadConfig configures the S3 uploader.
type UploadConfig struct {
	// PartSize is the minimum part size for multipart uploads.
	// Default: 8MB (larger than SDK default of 5MB for better throughput)
	PartSize int64

	// Concurrency is the number of concurrent part uploads.
	// Default: 5 (matches SDK default)
	Concurrency int

	// EnableChecksum enables CRC32C integrity validation.
	// Default: true
	EnableChecksum bool
}

// DefaultUploadConfig returns production upload settings.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:       8 * 1024 * 1024,
		Concurrency:    5,
		EnableChecksum: true,
	}
}

func newUploader(client Client, cfg UploadConfig) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.PartSize > 0 {
			u.PartSize = cfg.PartSize
		}
		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}
		// Failed multipart uploads are aborted so no parts linger.
		u.LeavePartsOnError = false
	})
}

var errAborted = errors.New("s3: upload aborted")

// streamingWritableBlob feeds a background multipart upload through a pipe.
// The object exists only after the upload completes.
type streamingWritableBlob struct {
	pw *io.PipeWriter
	pr *io.PipeReader

	done     chan error
	closed   atomic.Bool
	closeErr error
	closeMu  sync.Mutex
}

func newStreamingWritableBlob(ctx context.Context, uploader *manager.Uploader, bucket, key string, enableChecksum bool) *streamingWritableBlob {
	pr, pw := io.Pipe()

	blob := &streamingWritableBlob{
		pw:   pw,
		pr:   pr,
		done: make(chan error, 1),
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   pr,
	}
	if enableChecksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}

	go func() {
		_, err := uploader.Upload(ctx, input)
		_ = pr.CloseWithError(err)
		blob.done <- err
	}()

	return blob
}

func (b *streamingWritableBlob) Write(p []byte) (int, error) {
	if b.closed.Load() {
		return 0, io.ErrClosedPipe
	}
	return b.pw.Write(p)
}

// Close signals EOF to the uploader and waits for the upload to finish.
func (b *streamingWritableBlob) Close() error {
	b.closeMu.Lock()
	defer b.closeMu.Unlock()

	if !b.closed.CompareAndSwap(false, true) {
		return b.closeErr
	}

	if err := b.pw.Close(); err != nil {
		b.closeErr = err
		return err
	}

	b.closeErr = <-b.done
	return b.closeErr
}

// Abort fails the upload and waits for the uploader to give up. The
// uploader's error is expected and dropped.
func (b *streamingWritableBlob) Abort() error {
	b.closeMu.Lock()
	defer b.closeMu.Unlock()

	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	_ = b.pw.CloseWithError(errAborted)
	<-b.done
	return nil
}
