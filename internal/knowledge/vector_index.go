package knowledge

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/aihub/kbchat-go/internal/logger"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var (
	bucketVectors = []byte("vectors")
	bucketChunks  = []byte("chunks")
	bucketMeta    = []byte("meta")
	keyDimension  = []byte("dimension")
)

// Chunk 入库的文本块
type Chunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkMetadata 文本块元数据
type ChunkMetadata struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Source   string `json:"source"`
}

// SearchHit 检索命中结果，距离越小越相似
type SearchHit struct {
	Chunk    Chunk
	Distance float64
	Rank     int
}

// IndexStats 索引统计信息
type IndexStats struct {
	TotalVectors   int    `json:"total_vectors"`
	TotalDocuments int    `json:"total_documents"`
	IndexDimension int    `json:"index_dimension"`
	IndexType      string `json:"index_type"`
}

// FlatIndex 平方欧氏距离的精确检索索引。
// 向量数组与块列表按序号一一对应，序号即关联键。
// 写操作（Add/Clear/Save）互斥；Search仅持读锁，可与其它读并发。
type FlatIndex struct {
	mu        sync.RWMutex
	db        *bbolt.DB
	dimension int
	vectors   [][]float32
	chunks    []Chunk
}

// OpenFlatIndex 打开（或新建）索引文件并加载已持久化的数据。
// 文件不存在时创建给定维度的空索引。
func OpenFlatIndex(path string, dimension int) (*FlatIndex, error) {
	if dimension <= 0 {
		dimension = 1536
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}

	idx := &FlatIndex{
		db:        db,
		dimension: dimension,
	}

	if err := idx.load(); err != nil {
		// 持久化数据损坏时回退为空索引，保持服务可用
		logger.Error("加载向量索引失败，使用空索引", zap.String("path", path), zap.Error(err))
		idx.vectors = nil
		idx.chunks = nil
	}

	logger.Info("向量索引已加载",
		zap.String("path", path),
		zap.Int("vectors", len(idx.vectors)),
		zap.Int("dimension", idx.dimension))
	return idx, nil
}

func (idx *FlatIndex) load() error {
	return idx.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta != nil {
			if raw := meta.Get(keyDimension); len(raw) == 8 {
				idx.dimension = int(binary.BigEndian.Uint64(raw))
			}
		}

		vb := tx.Bucket(bucketVectors)
		cb := tx.Bucket(bucketChunks)
		if vb == nil || cb == nil {
			return nil
		}

		var vectors [][]float32
		if err := vb.ForEach(func(k, v []byte) error {
			vec, err := decodeVector(v)
			if err != nil {
				return err
			}
			vectors = append(vectors, vec)
			return nil
		}); err != nil {
			return err
		}

		var chunks []Chunk
		if err := cb.ForEach(func(k, v []byte) error {
			var chunk Chunk
			if err := json.Unmarshal(v, &chunk); err != nil {
				return err
			}
			chunks = append(chunks, chunk)
			return nil
		}); err != nil {
			return err
		}

		if len(vectors) != len(chunks) {
			return fmt.Errorf("index corrupted: %d vectors but %d chunks", len(vectors), len(chunks))
		}

		idx.vectors = vectors
		idx.chunks = chunks
		return nil
	})
}

// Add 追加向量与对应文本块并立即持久化。
// 追加与持久化在同一写锁内完成，不会与其它写操作交错。
func (idx *FlatIndex) Add(vectors [][]float32, chunks []Chunk) error {
	if len(vectors) != len(chunks) {
		return fmt.Errorf("vectors/chunks length mismatch: %d vs %d", len(vectors), len(chunks))
	}
	for _, vec := range vectors {
		if len(vec) != idx.dimension {
			return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, idx.dimension, len(vec))
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.vectors = append(idx.vectors, vectors...)
	idx.chunks = append(idx.chunks, chunks...)

	if err := idx.persistLocked(); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	return nil
}

// Search 返回距离升序的前k个命中，rank从1开始。
// k超过存量时返回全部；空索引返回空结果而非错误。
func (idx *FlatIndex) Search(query []float32, k int) ([]SearchHit, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, idx.dimension, len(query))
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.vectors) == 0 || k <= 0 {
		return nil, nil
	}

	type scored struct {
		ordinal  int
		distance float64
	}
	scores := make([]scored, len(idx.vectors))
	for i, vec := range idx.vectors {
		scores[i] = scored{ordinal: i, distance: squaredL2(query, vec)}
	}

	sort.Slice(scores, func(i, j int) bool {
		return scores[i].distance < scores[j].distance
	})

	if k > len(scores) {
		k = len(scores)
	}

	hits := make([]SearchHit, k)
	for i := 0; i < k; i++ {
		hits[i] = SearchHit{
			Chunk:    idx.chunks[scores[i].ordinal],
			Distance: scores[i].distance,
			Rank:     i + 1,
		}
	}
	return hits, nil
}

// Clear 清空索引并持久化空状态
func (idx *FlatIndex) Clear() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.vectors = nil
	idx.chunks = nil
	return idx.persistLocked()
}

// Save 持久化当前状态（用于关停前的最终落盘）
func (idx *FlatIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.persistLocked()
}

// Stats 返回索引统计信息
func (idx *FlatIndex) Stats() IndexStats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return IndexStats{
		TotalVectors:   len(idx.vectors),
		TotalDocuments: len(idx.chunks),
		IndexDimension: idx.dimension,
		IndexType:      "FlatL2",
	}
}

// Close 落盘并关闭索引文件
func (idx *FlatIndex) Close() error {
	if err := idx.Save(); err != nil {
		logger.Error("索引关停落盘失败", zap.Error(err))
	}
	return idx.db.Close()
}

// persistLocked 全量重写三个bucket。调用方必须持有写锁。
func (idx *FlatIndex) persistLocked() error {
	return idx.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketVectors, bucketChunks, bucketMeta} {
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return err
				}
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}

		meta := tx.Bucket(bucketMeta)
		if err := meta.Put(keyDimension, ordinalKey(uint64(idx.dimension))); err != nil {
			return err
		}

		vb := tx.Bucket(bucketVectors)
		cb := tx.Bucket(bucketChunks)
		for i, vec := range idx.vectors {
			key := ordinalKey(uint64(i))
			if err := vb.Put(key, encodeVector(vec)); err != nil {
				return err
			}
			data, err := json.Marshal(idx.chunks[i])
			if err != nil {
				return err
			}
			if err := cb.Put(key, data); err != nil {
				return err
			}
		}
		return nil
	})
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func ordinalKey(n uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, n)
	return key
}

func encodeVector(vec []float32) []byte {
	data := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	return data
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector encoding: %d bytes", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
