// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/jeranaias/chatdeck/internal/config"
)

// ImagesRoute serves files of a DiskImageStore.
const ImagesRoute = "/images"

// ImageStore keeps uploaded images and maps keys to public URLs.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	// URL returns the public URL of key. base is the server's own origin,
	// used when the store has no public URL of its own.
	URL(base, key string) string
}

// ImageKey builds a unique object key that keeps the upload's extension.
func ImageKey(filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return "ui-mockups/" + uuid.NewString() + ext
}

// NewImageStore builds the store selected by cfg.Backend.
func NewImageStore(ctx context.Context, cfg config.ImagesConfig) (ImageStore, error) {
	switch cfg.Backend {
	case "s3":
		store, err := NewS3ImageStore(ctx, cfg.S3, cfg.PublicURL)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case "", "disk":
		return NewDiskImageStore(cfg.Dir, cfg.PublicURL)
	default:
		return nil, fmt.Errorf("unknown image backend %q", cfg.Backend)
	}
}

// =============================================================================
// DISK STORE
// =============================================================================

// DiskImageStore writes images below Dir and serves them from ImagesRoute.
type DiskImageStore struct {
	Dir       string
	PublicURL string
}

// NewDiskImageStore creates dir if needed.
func NewDiskImageStore(dir, publicURL string) (*DiskImageStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}
	return &DiskImageStore{Dir: dir, PublicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (d *DiskImageStore) Put(_ context.Context, key, _ string, data []byte) error {
	p, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("create image directory: %w", err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}

func (d *DiskImageStore) URL(base, key string) string {
	if d.PublicURL != "" {
		base = d.PublicURL
	}
	return strings.TrimRight(base, "/") + ImagesRoute + "/" + key
}

func (d *DiskImageStore) path(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid image key %q", key)
	}
	return filepath.Join(d.Dir, filepath.FromSlash(clean)), nil
}

// =============================================================================
// S3 STORE
// =============================================================================

// S3Api is the subset of the S3 client the image store uses.
type S3Api interface {
	manager.UploadAPIClient

	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3ImageStore uploads images to an S3-compatible bucket.
type S3ImageStore struct {
	client    S3Api
	uploader  *manager.Uploader
	bucket    string
	region    string
	endpoint  string
	publicURL string
}

// NewS3ImageStore connects to the bucket described by cfg. A custom
// endpoint (MinIO) switches to path-style addressing.
func NewS3ImageStore(ctx context.Context, cfg config.S3Config, publicURL string) (*S3ImageStore, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) { // nolint:staticcheck
		if cfg.Endpoint != "" {
			return aws.Endpoint{ // nolint:staticcheck
				PartitionID:       "aws",
				URL:               cfg.Endpoint,
				HostnameImmutable: true,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{} // nolint:staticcheck
	})

	opts := []func(*aws_config.LoadOptions) error{
		aws_config.WithEndpointResolverWithOptions(resolver),
		aws_config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, aws_config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := aws_config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.Endpoint != ""
	})

	store := NewS3ImageStoreFromClient(client, cfg.Bucket, publicURL)
	store.region = cfg.Region
	store.endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return store, nil
}

// NewS3ImageStoreFromClient wraps an existing client.
func NewS3ImageStoreFromClient(client S3Api, bucket, publicURL string) *S3ImageStore {
	return &S3ImageStore{
		client:    client,
		uploader:  manager.NewUploader(client),
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// EnsureBucket creates the bucket when it does not exist.
func (s *S3ImageStore) EnsureBucket(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err == nil {
		return nil
	}
	if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *S3ImageStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("failed to upload to s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// Open reads an object back. Used by tests and by callers that proxy images.
func (s *S3ImageStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	getter, ok := s.client.(interface {
		GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	})
	if !ok {
		return nil, fmt.Errorf("s3 client cannot read objects")
	}
	out, err := getter.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", s.bucket, key, err)
	}
	return out.Body, nil
}

func (s *S3ImageStore) URL(_, key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	switch {
	case s.publicURL != "":
		return s.publicURL + "/" + escaped
	case s.endpoint != "":
		return s.endpoint + "/" + s.bucket + "/" + escaped
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, escaped)
	}
}
