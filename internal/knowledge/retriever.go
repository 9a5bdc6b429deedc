package knowledge

import (
	"context"

	"github.com/aihub/kbchat-go/internal/logger"
	"github.com/aihub/kbchat-go/internal/metrics"
	"go.uber.org/zap"
)

// RetrievalResult 单条检索结果
type RetrievalResult struct {
	Content         string        `json:"content"`
	Metadata        ChunkMetadata `json:"metadata"`
	SimilarityScore float64       `json:"similarity_score"`
	Rank            int           `json:"rank"`
	Preview         string        `json:"preview"`
}

// Retriever 把查询向量化后在索引中做精确最近邻检索
type Retriever struct {
	embedder      Embedder
	index         *FlatIndex
	topK          int
	previewLength int
}

func NewRetriever(embedder Embedder, index *FlatIndex, topK, previewLength int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	if previewLength <= 0 {
		previewLength = 200
	}
	return &Retriever{
		embedder:      embedder,
		index:         index,
		topK:          topK,
		previewLength: previewLength,
	}
}

// Retrieve 检索与查询最相关的k个文本块。k<=0时使用默认TopK。
// 检索属于尽力而为：向量化失败或索引错误时返回空结果，不向上抛错，
// 让对话在没有知识库支撑时也能降级继续。
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) []RetrievalResult {
	if k <= 0 {
		k = r.topK
	}

	if !r.embedder.Ready() {
		logger.Warn("嵌入服务不可用，跳过知识检索")
		metrics.RetrievalRequests.WithLabelValues("unavailable").Inc()
		return nil
	}

	vectors, err := r.embedder.EmbedBatch(ctx, []string{query})
	if err != nil || len(vectors) == 0 {
		logger.Error("查询向量化失败", zap.Error(err))
		metrics.RetrievalRequests.WithLabelValues("error").Inc()
		return nil
	}

	hits, err := r.index.Search(vectors[0], k)
	if err != nil {
		logger.Error("索引检索失败", zap.Error(err))
		metrics.RetrievalRequests.WithLabelValues("error").Inc()
		return nil
	}
	if len(hits) == 0 {
		metrics.RetrievalRequests.WithLabelValues("empty").Inc()
		return nil
	}

	results := make([]RetrievalResult, len(hits))
	for i, hit := range hits {
		results[i] = RetrievalResult{
			Content:         hit.Chunk.Content,
			Metadata:        hit.Chunk.Metadata,
			SimilarityScore: hit.Distance,
			Rank:            hit.Rank,
			Preview:         preview(hit.Chunk.Content, r.previewLength),
		}
	}

	metrics.RetrievalRequests.WithLabelValues("ok").Inc()
	logger.Info("知识检索完成",
		zap.String("query", preview(query, 50)),
		zap.Int("hits", len(results)))
	return results
}

// preview 截取前n个字符并补省略号，按rune截断避免拆断多字节字符
func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
