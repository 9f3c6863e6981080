package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/zulumai/exam-portal/internal/config"
)

// MinioProvider stores uploads in an object storage bucket.
type MinioProvider struct {
	client   *minio.Client
	endpoint string
	bucket   string
	useSSL   bool
	maxBytes int64
}

func NewMinioProvider(cfg *config.Config) (*MinioProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &MinioProvider{
		client:   client,
		endpoint: cfg.MinioEndpoint,
		bucket:   cfg.MinioBucket,
		useSSL:   cfg.MinioUseSSL,
		maxBytes: cfg.MaxUploadBytes,
	}, nil
}

func (p *MinioProvider) Upload(ctx context.Context, reader io.Reader, size int64, contentType string) (string, error) {
	name, err := checkUpload(size, p.maxBytes, contentType)
	if err != nil {
		return "", err
	}

	_, err = p.client.PutObject(ctx, p.bucket, name, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload object: %w", err)
	}

	scheme := "http"
	if p.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, p.endpoint, p.bucket, name), nil
}

func (p *MinioProvider) Delete(ctx context.Context, fileURL string) error {
	idx := strings.LastIndex(fileURL, "/")
	if idx < 0 {
		return nil
	}
	name := fileURL[idx+1:]
	if name == "" {
		return nil
	}
	return p.client.RemoveObject(ctx, p.bucket, name, minio.RemoveObjectOptions{})
}
