package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aihub/kbchat-go/internal/metrics"
	openai "github.com/sashabaranov/go-openai"
)

// 单次API调用的最大输入条数
const maxEmbeddingBatch = 100

// Embedder 文本向量化接口。
// EmbedBatch 逐条对应输入顺序返回定长向量。
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Ready() bool
}

// NoopEmbedder 未配置API密钥时的占位实现
type NoopEmbedder struct{}

func (n *NoopEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, ErrProviderUnavailable
}

func (n *NoopEmbedder) Dimensions() int {
	return 0
}

func (n *NoopEmbedder) Ready() bool {
	return false
}

var embeddingDimensions = map[string]int{
	"text-embedding-3-large": 3072,
	"text-embedding-3-small": 1536,
	"text-embedding-ada-002": 1536,
}

// OpenAIEmbedder 使用OpenAI Embedding API
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
}

// NewOpenAIEmbedder 创建嵌入向量生成器。密钥为空时返回NoopEmbedder。
func NewOpenAIEmbedder(apiKey, model string) Embedder {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return &NoopEmbedder{}
	}
	if model == "" {
		model = "text-embedding-ada-002"
	}

	dims, ok := embeddingDimensions[model]
	if !ok {
		dims = 1536
	}

	return &OpenAIEmbedder{
		client:     openai.NewClient(apiKey),
		model:      model,
		dimensions: dims,
	}
}

func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if e.client == nil {
		return nil, ErrProviderUnavailable
	}

	result := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxEmbeddingBatch {
		end := start + maxEmbeddingBatch
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := e.embedChunk(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		result = append(result, vectors...)
	}

	return result, nil
}

func (e *OpenAIEmbedder) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	started := time.Now()
	metrics.EmbeddingRequests.Inc()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	metrics.EmbeddingDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, errors.New("embedding response count mismatch")
	}

	vectors := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		vec := make([]float32, len(item.Embedding))
		copy(vec, item.Embedding)
		vectors[i] = vec
	}
	return vectors, nil
}

func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

func (e *OpenAIEmbedder) Ready() bool {
	return e.client != nil
}
