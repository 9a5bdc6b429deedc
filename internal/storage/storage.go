package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aihub/kbchat-go/internal/config"
)

// FileStore 上传文件存储抽象
// 对象键固定为 "<file_id>_<filename>"，由调用方构造
type FileStore interface {
	Save(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ObjectKey 构造确定性存储键
func ObjectKey(fileID, filename string) string {
	return fmt.Sprintf("%s_%s", fileID, filename)
}

// NewFileStore 根据配置选择存储后端
func NewFileStore(cfg config.KnowledgeConfig) (FileStore, error) {
	switch cfg.Storage.Provider {
	case "minio", "s3":
		return NewMinIOStore(cfg.Storage)
	default:
		return NewLocalStore(cfg.UploadPath)
	}
}
