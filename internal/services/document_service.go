package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aihub/kbchat-go/internal/database"
	"github.com/aihub/kbchat-go/internal/kafka"
	"github.com/aihub/kbchat-go/internal/knowledge"
	"github.com/aihub/kbchat-go/internal/logger"
	"github.com/aihub/kbchat-go/internal/metrics"
	"github.com/aihub/kbchat-go/internal/models"
	"github.com/aihub/kbchat-go/internal/repository"
	"github.com/aihub/kbchat-go/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	statusCacheKeyPrefix = "kbchat:doc:status:"
	statusCacheTTL       = time.Hour
)

// DocumentService 文档摄取服务。
// 负责上传落盘、状态流转与完整的处理管线：
// 提取文本 -> 切分 -> 生成向量 -> 写入索引。
type DocumentService struct {
	repo      repository.DocumentRepository
	store     storage.FileStore
	extractor *knowledge.TextExtractor
	chunker   *knowledge.Chunker
	embedder  knowledge.Embedder
	index     *knowledge.FlatIndex
	producer  *kafka.Producer
}

// UploadResponse 上传接口响应
type UploadResponse struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

// StatusResponse 处理状态响应
type StatusResponse struct {
	FileID         string     `json:"file_id"`
	Filename       string     `json:"filename"`
	Status         string     `json:"status"`
	ProcessingStep *string    `json:"processing_step,omitempty"`
	ChunksCount    *int       `json:"chunks_count,omitempty"`
	TextLength     *int       `json:"text_length,omitempty"`
	Error          *string    `json:"error,omitempty"`
	UploadedAt     time.Time  `json:"uploaded_at"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
}

// NewDocumentService 创建文档服务
func NewDocumentService(
	repo repository.DocumentRepository,
	store storage.FileStore,
	extractor *knowledge.TextExtractor,
	chunker *knowledge.Chunker,
	embedder knowledge.Embedder,
	index *knowledge.FlatIndex,
	producer *kafka.Producer,
) *DocumentService {
	return &DocumentService{
		repo:      repo,
		store:     store,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		producer:  producer,
	}
}

// Upload 接收上传文件，落盘并登记记录，然后异步触发处理。
// 上传响应不等待处理完成，调用方通过状态接口轮询进度。
func (s *DocumentService) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (*UploadResponse, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !s.extractor.Supports(filename) {
		return nil, fmt.Errorf("unsupported file type %q, supported: %s",
			ext, strings.Join(s.extractor.SupportedFormats(), ", "))
	}

	fileID := uuid.NewString()
	key := storage.ObjectKey(fileID, filename)

	storagePath, err := s.store.Save(ctx, key, reader, size, contentType)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	doc := &models.UploadedDocument{
		FileID:      fileID,
		Filename:    filename,
		StoragePath: storagePath,
		Status:      models.DocumentStatusUploaded,
		UploadedAt:  time.Now(),
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}
	s.mirrorStatus(ctx, doc)

	s.dispatch(fileID, filename)

	logger.Info("文件上传成功",
		zap.String("file_id", fileID),
		zap.String("filename", filename))

	// 响应状态按处理中给出，落库记录保持uploaded直到首个步骤开始
	return &UploadResponse{
		FileID:   fileID,
		Filename: filename,
		Status:   models.DocumentStatusProcessing,
	}, nil
}

// dispatch 投递处理任务：优先走Kafka，不可用时直接起goroutine兜底
func (s *DocumentService) dispatch(fileID, filename string) {
	if s.producer != nil {
		event := &kafka.DocumentProcessEvent{
			FileID:    fileID,
			Filename:  filename,
			Timestamp: time.Now(),
		}
		if err := s.producer.SendDocumentProcessEvent(event); err == nil {
			return
		} else {
			logger.Warn("Kafka投递失败，回退本地处理",
				zap.String("file_id", fileID), zap.Error(err))
		}
	}
	go s.Process(context.Background(), fileID)
}

// Process 运行完整处理管线。每次状态流转先落库再进入下一步，
// 任一环节失败即转入failed并记录错误信息。
func (s *DocumentService) Process(ctx context.Context, fileID string) {
	doc, err := s.repo.GetByFileID(ctx, fileID)
	if err != nil {
		logger.Error("处理任务找不到文档记录", zap.String("file_id", fileID), zap.Error(err))
		return
	}
	if doc.IsTerminal() {
		logger.Warn("文档已处于终态，跳过处理",
			zap.String("file_id", fileID), zap.String("status", doc.Status))
		return
	}

	logger.Info("开始处理文档", zap.String("file_id", fileID), zap.String("filename", doc.Filename))

	// 1. 提取文本
	if err := s.setStep(ctx, doc, models.StepExtractingText); err != nil {
		return
	}
	text, err := s.extractText(ctx, doc)
	if err != nil {
		s.fail(ctx, doc, err)
		return
	}
	if strings.TrimSpace(text) == "" {
		s.fail(ctx, doc, knowledge.ErrEmptyExtraction)
		return
	}

	// 2. 切分文本
	if err := s.setStep(ctx, doc, models.StepSplittingText); err != nil {
		return
	}
	segments := s.chunker.Split(text)
	if len(segments) == 0 {
		s.fail(ctx, doc, knowledge.ErrEmptyExtraction)
		return
	}

	// 3. 生成向量
	if err := s.setStep(ctx, doc, models.StepGeneratingEmbeddings); err != nil {
		return
	}
	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		s.fail(ctx, doc, err)
		return
	}

	// 4. 写入索引（追加+落盘在索引内部原子完成）
	if err := s.setStep(ctx, doc, models.StepIndexing); err != nil {
		return
	}
	chunks := make([]knowledge.Chunk, len(segments))
	for i, seg := range segments {
		chunks[i] = knowledge.Chunk{
			Content: seg.Text,
			Metadata: knowledge.ChunkMetadata{
				FileID:   doc.FileID,
				Filename: doc.Filename,
				Source:   doc.StoragePath,
			},
		}
	}
	if err := s.index.Add(vectors, chunks); err != nil {
		s.fail(ctx, doc, err)
		return
	}

	// 5. 完成
	now := time.Now()
	step := models.StepCompleted
	chunksCount := len(chunks)
	textLength := len([]rune(text))
	updates := map[string]interface{}{
		"status":          models.DocumentStatusProcessed,
		"processing_step": step,
		"chunks_count":    chunksCount,
		"text_length":     textLength,
		"processed_at":    now,
	}
	if err := s.repo.UpdateByFileID(ctx, doc.FileID, updates); err != nil {
		logger.Error("完成状态落库失败", zap.String("file_id", doc.FileID), zap.Error(err))
		return
	}
	doc.Status = models.DocumentStatusProcessed
	doc.ProcessingStep = &step
	doc.ChunksCount = &chunksCount
	doc.TextLength = &textLength
	doc.ProcessedAt = &now
	s.mirrorStatus(ctx, doc)

	metrics.DocumentsProcessed.WithLabelValues("processed").Inc()
	metrics.ChunksIndexed.Add(float64(chunksCount))

	logger.Info("文档处理完成",
		zap.String("file_id", doc.FileID),
		zap.Int("chunks", chunksCount),
		zap.Int("text_length", textLength))
}

func (s *DocumentService) extractText(ctx context.Context, doc *models.UploadedDocument) (string, error) {
	reader, err := s.store.Open(ctx, storage.ObjectKey(doc.FileID, doc.Filename))
	if err != nil {
		return "", fmt.Errorf("open stored file: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read stored file: %w", err)
	}

	return s.extractor.Extract(bytes.NewReader(data), doc.Filename), nil
}

// setStep 推进到下一处理步骤并先行落库
func (s *DocumentService) setStep(ctx context.Context, doc *models.UploadedDocument, step string) error {
	updates := map[string]interface{}{
		"status":          models.DocumentStatusProcessing,
		"processing_step": step,
	}
	if err := s.repo.UpdateByFileID(ctx, doc.FileID, updates); err != nil {
		logger.Error("状态流转落库失败",
			zap.String("file_id", doc.FileID),
			zap.String("step", step),
			zap.Error(err))
		return err
	}
	doc.Status = models.DocumentStatusProcessing
	doc.ProcessingStep = &step
	s.mirrorStatus(ctx, doc)
	return nil
}

// fail 转入失败终态，错误信息原样保留给状态接口
func (s *DocumentService) fail(ctx context.Context, doc *models.UploadedDocument, cause error) {
	msg := cause.Error()
	updates := map[string]interface{}{
		"status": models.DocumentStatusFailed,
		"error":  msg,
	}
	if err := s.repo.UpdateByFileID(ctx, doc.FileID, updates); err != nil {
		logger.Error("失败状态落库失败", zap.String("file_id", doc.FileID), zap.Error(err))
	}
	doc.Status = models.DocumentStatusFailed
	doc.Error = &msg
	s.mirrorStatus(ctx, doc)

	metrics.DocumentsProcessed.WithLabelValues("failed").Inc()
	logger.Error("文档处理失败",
		zap.String("file_id", doc.FileID),
		zap.String("filename", doc.Filename),
		zap.String("error", msg))
}

// GetStatus 查询处理状态，优先读Redis镜像，未命中回源数据库
func (s *DocumentService) GetStatus(ctx context.Context, fileID string) (*StatusResponse, error) {
	if database.RedisClient != nil {
		raw, err := database.RedisClient.Get(ctx, statusCacheKeyPrefix+fileID).Result()
		if err == nil {
			var resp StatusResponse
			if err := json.Unmarshal([]byte(raw), &resp); err == nil {
				return &resp, nil
			}
		}
	}

	doc, err := s.repo.GetByFileID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return statusOf(doc), nil
}

// Stats 返回向量索引统计
func (s *DocumentService) Stats() knowledge.IndexStats {
	return s.index.Stats()
}

// ClearIndex 清空向量索引（管理接口）
func (s *DocumentService) ClearIndex() error {
	if err := s.index.Clear(); err != nil {
		return err
	}
	logger.Info("向量索引已清空")
	return nil
}

// mirrorStatus 把最新状态写入Redis镜像，失败仅记日志不影响主流程
func (s *DocumentService) mirrorStatus(ctx context.Context, doc *models.UploadedDocument) {
	if database.RedisClient == nil {
		return
	}
	data, err := json.Marshal(statusOf(doc))
	if err != nil {
		return
	}
	if err := database.RedisClient.Set(ctx, statusCacheKeyPrefix+doc.FileID, data, statusCacheTTL).Err(); err != nil {
		logger.Warn("状态镜像写入Redis失败", zap.String("file_id", doc.FileID), zap.Error(err))
	}
}

func statusOf(doc *models.UploadedDocument) *StatusResponse {
	return &StatusResponse{
		FileID:         doc.FileID,
		Filename:       doc.Filename,
		Status:         doc.Status,
		ProcessingStep: doc.ProcessingStep,
		ChunksCount:    doc.ChunksCount,
		TextLength:     doc.TextLength,
		Error:          doc.Error,
		UploadedAt:     doc.UploadedAt,
		ProcessedAt:    doc.ProcessedAt,
	}
}
