package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/hupe1980/sparserow"
	"github.com/hupe1980/sparserow/blobstore"
	"github.com/hupe1980/sparserow/blobstore/minio"
	"github.com/hupe1980/sparserow/blobstore/s3"
	"github.com/hupe1980/sparserow/snapshot"
)

// ArchiveOptions select where published snapshots go.
type ArchiveOptions struct {
	URL       string `long:"url" env:"URL" value-name:"URL" description:"publish matrix A to a directory, s3://bucket/prefix or minio://host:port/bucket/prefix"`
	Name      string `long:"name" env:"NAME" default:"rowdot-a.srow" description:"blob name of the published snapshot"`
	Region    string `long:"region" env:"REGION" description:"AWS region for s3:// archives"`
	Endpoint  string `long:"endpoint" env:"ENDPOINT" description:"S3-compatible endpoint for s3:// archives"`
	DDBTable  string `long:"ddb-table" env:"DDB_TABLE" description:"DynamoDB table tracking versions of s3:// archives"`
	AccessKey string `long:"access-key" env:"ACCESS_KEY" default:"minioadmin" description:"access key for minio:// archives"`
	SecretKey string `long:"secret-key" env:"SECRET_KEY" default:"minioadmin" description:"secret key for minio:// archives"`
	Secure    bool   `long:"secure" env:"SECURE" description:"use TLS for minio:// archives"`
}

// openArchive resolves the archive URL to a store and a catalog. Only
// s3:// archives with a DynamoDB table get a shared catalog; all others
// track versions in process.
func openArchive(ctx context.Context, o ArchiveOptions) (blobstore.Store, blobstore.Catalog, error) {
	u, err := url.Parse(o.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("archive url: %w", err)
	}

	switch u.Scheme {
	case "", "file":
		dir := u.Path
		if u.Scheme == "" {
			dir = o.URL
		}
		store, err := blobstore.NewLocalStore(dir, sparserow.LocalFS{})
		if err != nil {
			return nil, nil, err
		}
		return store, blobstore.NewMemoryCatalog(), nil

	case "s3":
		optFns := []s3.Option{
			s3.WithPrefix(strings.TrimPrefix(u.Path, "/")),
			s3.WithRegion(o.Region),
		}
		if o.Endpoint != "" {
			optFns = append(optFns, s3.WithEndpoint(o.Endpoint))
		}

		store, err := s3.New(ctx, u.Host, optFns...)
		if err != nil {
			return nil, nil, err
		}
		if o.DDBTable == "" {
			return store, blobstore.NewMemoryCatalog(), nil
		}

		cfg, err := s3.LoadConfig(ctx, o.Region)
		if err != nil {
			return nil, nil, err
		}
		return store, s3.NewDDBCatalogFromConfig(cfg, o.DDBTable, o.URL), nil

	case "minio":
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		if bucket == "" {
			return nil, nil, errors.New("archive url: minio:// needs a bucket")
		}

		store, err := minio.Dial(ctx, u.Host, o.AccessKey, o.SecretKey, o.Secure, bucket, prefix)
		if err != nil {
			return nil, nil, err
		}
		return store, blobstore.NewMemoryCatalog(), nil

	default:
		return nil, nil, fmt.Errorf("archive url: unsupported scheme %q", u.Scheme)
	}
}

// publishArchive publishes m and loads the latest version back.
func publishArchive(ctx context.Context, rt *sparserow.Runtime, m *sparserow.Matrix, opts Options, out io.Writer) error {
	c, err := snapshot.ParseCompression(opts.Compression)
	if err != nil {
		return err
	}

	store, catalog, err := openArchive(ctx, opts.Archive)
	if err != nil {
		return err
	}

	if _, err := m.Publish(ctx, store, catalog, opts.Archive.Name, c); err != nil {
		return err
	}

	loaded, v, err := rt.LoadLatest(ctx, store, catalog)
	if err != nil {
		return err
	}
	defer loaded.Close()

	if !loaded.Written().Equals(m.Written()) {
		return errors.New("load archive: written rows differ")
	}

	fmt.Fprintf(out, "archive: %s/%s version %d, %d rows written\n",
		strings.TrimSuffix(opts.Archive.URL, "/"), opts.Archive.Name, v, loaded.Written().GetCardinality())
	return nil
}
