package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/zulumai/exam-portal/internal/config"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file exceeds the upload size limit")
)

// Provider stores uploaded files and returns a URL the portal can serve
// or redirect to.
type Provider interface {
	Upload(ctx context.Context, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, fileURL string) error
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// NewProvider builds the configured backend: "minio" for object storage,
// anything else falls back to local disk.
func NewProvider(cfg *config.Config) (Provider, error) {
	if cfg.StorageBackend == "minio" {
		return NewMinioProvider(cfg)
	}
	return NewLocalProvider(cfg.UploadDir, cfg.MaxUploadBytes)
}

func checkUpload(size, maxBytes int64, contentType string) (string, error) {
	if size > maxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrFileTooLarge, size)
	}
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	return uuid.NewString() + ext, nil
}

// LocalProvider writes uploads under a directory served as static files.
type LocalProvider struct {
	dir      string
	maxBytes int64
}

func NewLocalProvider(dir string, maxBytes int64) (*LocalProvider, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalProvider{dir: dir, maxBytes: maxBytes}, nil
}

func (p *LocalProvider) Upload(_ context.Context, reader io.Reader, size int64, contentType string) (string, error) {
	name, err := checkUpload(size, p.maxBytes, contentType)
	if err != nil {
		return "", err
	}

	path := filepath.Join(p.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, io.LimitReader(reader, p.maxBytes+1)); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write file: %w", err)
	}
	return "/uploads/" + name, nil
}

func (p *LocalProvider) Delete(_ context.Context, fileURL string) error {
	name := strings.TrimPrefix(fileURL, "/uploads/")
	if name == "" || strings.Contains(name, "/") {
		return nil
	}
	err := os.Remove(filepath.Join(p.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
