package repository

import (
	"context"

	"github.com/aihub/kbchat-go/internal/models"
	"gorm.io/gorm"
)

// DocumentRepository 上传文档仓库接口
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.UploadedDocument) error
	GetByFileID(ctx context.Context, fileID string) (*models.UploadedDocument, error)
	UpdateByFileID(ctx context.Context, fileID string, updates map[string]interface{}) error
	List(ctx context.Context, page, limit int) ([]models.UploadedDocument, int64, error)
}

// documentRepository 文档仓库实现
type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建文档仓库
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create 创建文档记录
func (r *documentRepository) Create(ctx context.Context, doc *models.UploadedDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// GetByFileID 根据文件ID获取文档
func (r *documentRepository) GetByFileID(ctx context.Context, fileID string) (*models.UploadedDocument, error) {
	var doc models.UploadedDocument
	err := r.db.WithContext(ctx).Where("file_id = ?", fileID).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateByFileID 更新文档字段
func (r *documentRepository) UpdateByFileID(ctx context.Context, fileID string, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.UploadedDocument{}).
		Where("file_id = ?", fileID).
		Updates(updates).Error
}

// List 分页获取文档列表，按上传时间倒序
func (r *documentRepository) List(ctx context.Context, page, limit int) ([]models.UploadedDocument, int64, error) {
	var docs []models.UploadedDocument
	var total int64

	query := r.db.WithContext(ctx).Model(&models.UploadedDocument{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	offset := (page - 1) * limit
	if err := query.Order("uploaded_at DESC").Offset(offset).Limit(limit).Find(&docs).Error; err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}
