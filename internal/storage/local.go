package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore 本地磁盘存储
type LocalStore struct {
	basePath string
}

// NewLocalStore 创建本地存储，目录不存在时自动创建
func NewLocalStore(basePath string) (*LocalStore, error) {
	if basePath == "" {
		basePath = "data/uploads"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

func (s *LocalStore) Save(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	path := filepath.Join(s.basePath, key)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.basePath, key))
}
