package s3

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client is the subset of the S3 API used by Store.
type Client interface {
	manager.UploadAPIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type options struct {
	prefix   string
	region   string
	endpoint string
	upload   UploadConfig
}

// Option configures New.
type Option func(*options)

// WithPrefix sets the key prefix prepended to every blob name.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithRegion overrides the region from the default AWS configuration.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithEndpoint points the client at an S3-compatible endpoint and enables
// path-style addressing.
func WithEndpoint(url string) Option {
	return func(o *options) {
		o.endpoint = url
	}
}

// WithUploadConfig sets the multipart upload parameters.
func WithUploadConfig(cfg UploadConfig) Option {
	return func(o *options) {
		o.upload = cfg
	}
}

// LoadConfig loads the default AWS configuration chain, optionally pinned
// to region.
func LoadConfig(ctx context.Context, region string) (aws.Config, error) {
	var optFns []func(*config.LoadOptions) error
	if region != "" {
		optFns = append(optFns, config.WithRegion(region))
	}
	return config.LoadDefaultConfig(ctx, optFns...)
}

// New creates a Store for bucket using the default AWS configuration chain.
func New(ctx context.Context, bucket string, optFns ...Option) (*Store, error) {
	o := options{upload: DefaultUploadConfig()}
	for _, fn := range optFns {
		fn(&o)
	}

	cfg, err := LoadConfig(ctx, o.region)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.endpoint != "" {
			so.BaseEndpoint = aws.String(o.endpoint)
			so.UsePathStyle = true
		}
	})

	return NewStore(client, bucket, o.prefix, o.upload), nil
}
