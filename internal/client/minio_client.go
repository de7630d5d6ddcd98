package client

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/learnhub/api/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient implements StorageClient for MinIO and other S3-compatible servers
type MinioClient struct {
	client     *minio.Client
	bucketName string
	publicURL  string
	endpoint   string
	secure     bool
}

// NewMinioClient creates a new MinIO storage client
func NewMinioClient(cfg *config.MinioConfig) (*MinioClient, error) {
	if cfg.Endpoint == "" || cfg.BucketName == "" {
		return nil, fmt.Errorf("minio configuration incomplete")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio connection: %w", err)
	}

	return &MinioClient{
		client:     mc,
		bucketName: cfg.BucketName,
		publicURL:  strings.TrimSuffix(cfg.PublicURL, "/"),
		endpoint:   cfg.Endpoint,
		secure:     cfg.UseSSL,
	}, nil
}

// Upload writes an object with its user metadata and returns the public URL
func (c *MinioClient) Upload(ctx context.Context, key string, body io.Reader, opts UploadOptions) (string, error) {
	_, err := c.client.PutObject(ctx, c.bucketName, key, body, opts.Size, minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		UserMetadata: opts.Metadata,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to minio: %w", err)
	}
	return c.GetPublicURL(key), nil
}

// ListPrefix returns every object key under prefix
func (c *MinioClient) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range c.client.ListObjects(ctx, c.bucketName, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list minio prefix %s: %w", prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// DeletePrefix removes every object under prefix and returns how many were deleted
func (c *MinioClient) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := c.ListPrefix(ctx, prefix)
	if err != nil {
		return 0, err
	}

	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, key := range keys {
		objectsCh <- minio.ObjectInfo{Key: key}
	}
	close(objectsCh)

	failed := 0
	var firstErr error
	for rmErr := range c.client.RemoveObjects(ctx, c.bucketName, objectsCh, minio.RemoveObjectsOptions{}) {
		failed++
		if firstErr == nil {
			firstErr = fmt.Errorf("failed to delete %s from minio: %w", rmErr.ObjectName, rmErr.Err)
		}
	}

	return len(keys) - failed, firstErr
}

// GetSignedURL generates a presigned URL for temporary access
func (c *MinioClient) GetSignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := c.client.PresignedGetObject(ctx, c.bucketName, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return u.String(), nil
}

// GetPublicURL returns the public URL for a key
func (c *MinioClient) GetPublicURL(key string) string {
	if c.publicURL != "" {
		return fmt.Sprintf("%s/%s", c.publicURL, key)
	}
	scheme := "http"
	if c.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, c.endpoint, c.bucketName, key)
}
