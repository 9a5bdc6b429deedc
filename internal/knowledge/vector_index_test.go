package knowledge

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndex(t *testing.T, dimension int) *FlatIndex {
	t.Helper()
	idx, err := OpenFlatIndex(filepath.Join(t.TempDir(), "index.db"), dimension)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestFlatIndexSearchOrder(t *testing.T) {
	idx := testIndex(t, 2)

	vectors := [][]float32{
		{0, 0},
		{3, 4},
		{1, 0},
	}
	chunks := []Chunk{
		{Content: "origin"},
		{Content: "far"},
		{Content: "near"},
	}
	require.NoError(t, idx.Add(vectors, chunks))

	hits, err := idx.Search([]float32{0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	// 距离升序：0 < 1 < 25（平方欧氏距离）
	assert.Equal(t, "origin", hits[0].Chunk.Content)
	assert.Equal(t, "near", hits[1].Chunk.Content)
	assert.Equal(t, "far", hits[2].Chunk.Content)
	assert.Equal(t, 0.0, hits[0].Distance)
	assert.Equal(t, 1.0, hits[1].Distance)
	assert.Equal(t, 25.0, hits[2].Distance)

	// rank从1开始连续递增
	for i, hit := range hits {
		assert.Equal(t, i+1, hit.Rank)
	}
}

func TestFlatIndexSearchCapsK(t *testing.T) {
	idx := testIndex(t, 2)

	require.NoError(t, idx.Add(
		[][]float32{{1, 1}, {2, 2}},
		[]Chunk{{Content: "a"}, {Content: "b"}},
	))

	hits, err := idx.Search([]float32{0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestFlatIndexEmptySearch(t *testing.T) {
	idx := testIndex(t, 2)

	hits, err := idx.Search([]float32{0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestFlatIndexDimensionMismatch(t *testing.T) {
	idx := testIndex(t, 4)

	err := idx.Add([][]float32{{1, 2}}, []Chunk{{Content: "x"}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = idx.Search([]float32{1, 2}, 5)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestFlatIndexLengthMismatch(t *testing.T) {
	idx := testIndex(t, 2)

	err := idx.Add([][]float32{{1, 2}}, []Chunk{{Content: "a"}, {Content: "b"}})
	assert.Error(t, err)
}

func TestFlatIndexClear(t *testing.T) {
	idx := testIndex(t, 2)

	require.NoError(t, idx.Add([][]float32{{1, 1}}, []Chunk{{Content: "a"}}))
	require.NoError(t, idx.Clear())

	stats := idx.Stats()
	assert.Equal(t, 0, stats.TotalVectors)

	hits, err := idx.Search([]float32{1, 1}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestFlatIndexPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	idx, err := OpenFlatIndex(path, 2)
	require.NoError(t, err)
	require.NoError(t, idx.Add(
		[][]float32{{1, 0}, {0, 1}},
		[]Chunk{
			{Content: "first", Metadata: ChunkMetadata{FileID: "f1", Filename: "a.txt"}},
			{Content: "second", Metadata: ChunkMetadata{FileID: "f2", Filename: "b.txt"}},
		},
	))
	require.NoError(t, idx.Close())

	// 重新打开后数据与元数据完整
	reopened, err := OpenFlatIndex(path, 2)
	require.NoError(t, err)
	defer reopened.Close()

	stats := reopened.Stats()
	assert.Equal(t, 2, stats.TotalVectors)
	assert.Equal(t, 2, stats.IndexDimension)

	hits, err := reopened.Search([]float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "first", hits[0].Chunk.Content)
	assert.Equal(t, "f1", hits[0].Chunk.Metadata.FileID)
}

func TestFlatIndexStats(t *testing.T) {
	idx := testIndex(t, 1536)

	stats := idx.Stats()
	assert.Equal(t, 0, stats.TotalVectors)
	assert.Equal(t, 0, stats.TotalDocuments)
	assert.Equal(t, 1536, stats.IndexDimension)
	assert.Equal(t, "FlatL2", stats.IndexType)
}
