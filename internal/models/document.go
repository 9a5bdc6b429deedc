package models

import (
	"time"
)

// 文档状态
const (
	DocumentStatusUploaded   = "uploaded"
	DocumentStatusProcessing = "processing"
	DocumentStatusProcessed  = "processed"
	DocumentStatusFailed     = "failed"
)

// 处理步骤（按流水线顺序）
const (
	StepExtractingText       = "extracting_text"
	StepSplittingText        = "splitting_text"
	StepGeneratingEmbeddings = "generating_embeddings"
	StepIndexing             = "indexing"
	StepCompleted            = "completed"
)

// UploadedDocument 上传文档记录
type UploadedDocument struct {
	ID             uint       `gorm:"primaryKey;column:id" json:"-"`
	FileID         string     `gorm:"column:file_id;size:64;uniqueIndex;not null" json:"file_id"`
	Filename       string     `gorm:"size:500;not null" json:"filename"`
	StoragePath    string     `gorm:"column:storage_path;size:600;not null" json:"storage_path"`
	Status         string     `gorm:"size:20;default:uploaded;not null" json:"status"`
	ProcessingStep *string    `gorm:"column:processing_step;size:30" json:"processing_step"`
	ChunksCount    *int       `gorm:"column:chunks_count" json:"chunks_count"`
	TextLength     *int       `gorm:"column:text_length" json:"text_length"`
	Error          *string    `gorm:"type:text" json:"error"`
	UploadedAt     time.Time  `gorm:"column:uploaded_at;not null" json:"uploaded_at"`
	ProcessedAt    *time.Time `gorm:"column:processed_at" json:"processed_at"`
}

func (UploadedDocument) TableName() string {
	return "uploaded_documents"
}

// StepOrder 处理步骤的严格顺序，failed可从任意非终态进入
var StepOrder = []string{
	StepExtractingText,
	StepSplittingText,
	StepGeneratingEmbeddings,
	StepIndexing,
	StepCompleted,
}

// IsTerminal 判断文档是否处于终态
func (d *UploadedDocument) IsTerminal() bool {
	return d.Status == DocumentStatusProcessed || d.Status == DocumentStatusFailed
}
