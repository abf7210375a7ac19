package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Uthmaanravat/UROps-sub001/internal/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrTooLarge is returned when an upload exceeds the configured limit
	ErrTooLarge = errors.New("file exceeds maximum upload size")
	// ErrNotFound is returned when a stored object does not exist
	ErrNotFound = errors.New("file not found")
	// ErrInvalidPath is returned for keys that escape the storage root
	ErrInvalidPath = errors.New("invalid storage path")
)

// Object describes a stored file
type Object struct {
	Path string
	Size int64
}

// Storage stores attachment files (voice notes, site photos). Keys are
// grouped under a tenant-specific prefix.
type Storage interface {
	Upload(ctx context.Context, prefix, filename, contentType string, data io.Reader) (Object, error)
	Open(ctx context.Context, storagePath string) (io.ReadCloser, error)
	Delete(ctx context.Context, storagePath string) error
}

// NewStorage creates the storage selected by cfg.Mode
func NewStorage(cfg *config.StorageConfig, logger *zap.Logger) (Storage, error) {
	maxBytes := cfg.MaxUploadSizeMB * 1024 * 1024
	switch cfg.Mode {
	case "local", "":
		return NewLocalStorage(cfg.LocalBasePath, maxBytes)
	case "cloud", "azure":
		if cfg.CloudConnectionString == "" {
			return nil, fmt.Errorf("cloud connection string required for azure storage")
		}
		return NewAzureBlobStorage(context.Background(), cfg.CloudConnectionString, cfg.CloudContainer, maxBytes, logger)
	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", cfg.Mode)
	}
}

// ObjectKey builds a unique key below prefix keeping the file extension
func ObjectKey(prefix, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join(strings.Trim(prefix, "/"), uuid.NewString()+ext)
}

// limitReader fails with ErrTooLarge once more than max bytes were read.
// A max of zero disables the limit.
type limitReader struct {
	r     io.Reader
	max   int64
	count int64
}

func (l *limitReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.count += int64(n)
	if l.max > 0 && l.count > l.max {
		return n, ErrTooLarge
	}
	return n, err
}

// LocalStorage implements Storage on the local filesystem
type LocalStorage struct {
	basePath string
	maxBytes int64
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath string, maxBytes int64) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath, maxBytes: maxBytes}, nil
}

func (s *LocalStorage) resolve(storagePath string) (string, error) {
	clean := path.Clean("/" + storagePath)
	if clean == "/" || strings.Contains(storagePath, "..") {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.basePath, filepath.FromSlash(clean)), nil
}

func (s *LocalStorage) Upload(ctx context.Context, prefix, filename, contentType string, data io.Reader) (Object, error) {
	key := ObjectKey(prefix, filename)
	fullPath, err := s.resolve(key)
	if err != nil {
		return Object{}, err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return Object{}, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return Object{}, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, &limitReader{r: data, max: s.maxBytes})
	if err != nil {
		_ = os.Remove(fullPath)
		if errors.Is(err, ErrTooLarge) {
			return Object{}, ErrTooLarge
		}
		return Object{}, fmt.Errorf("failed to write file: %w", err)
	}

	return Object{Path: key, Size: size}, nil
}

func (s *LocalStorage) Open(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(storagePath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, storagePath)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (s *LocalStorage) Delete(ctx context.Context, storagePath string) error {
	fullPath, err := s.resolve(storagePath)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
