package knowledge

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// EmbedPool 有界并发的嵌入调用池。
// 入库与检索共用同一个池，保证向外部服务的并发调用数有上限，
// 同时把阻塞的网络调用从请求路径上移走。
type EmbedPool struct {
	embedder Embedder
	sem      *semaphore.Weighted
}

// NewEmbedPool 创建嵌入调用池
func NewEmbedPool(embedder Embedder, maxParallel int) *EmbedPool {
	if maxParallel <= 0 {
		maxParallel = 4
	}
	return &EmbedPool{
		embedder: embedder,
		sem:      semaphore.NewWeighted(int64(maxParallel)),
	}
}

func (p *EmbedPool) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	return p.embedder.EmbedBatch(ctx, texts)
}

func (p *EmbedPool) Dimensions() int {
	return p.embedder.Dimensions()
}

func (p *EmbedPool) Ready() bool {
	return p.embedder.Ready()
}
