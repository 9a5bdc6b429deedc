package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkerShortText(t *testing.T) {
	c := NewChunker(1000, 200)

	segments := c.Split("hello world")
	require.Len(t, segments, 1)
	assert.Equal(t, 0, segments[0].Index)
	assert.Equal(t, "hello world", segments[0].Text)
}

func TestChunkerEmptyText(t *testing.T) {
	c := NewChunker(1000, 200)

	assert.Nil(t, c.Split(""))
	assert.Nil(t, c.Split("   \n\t  "))
}

func TestChunkerSizeLimit(t *testing.T) {
	c := NewChunker(1000, 200)
	text := strings.Repeat("word ", 1000) // 5000字符

	segments := c.Split(text)
	require.Greater(t, len(segments), 1)

	for _, seg := range segments {
		assert.LessOrEqual(t, len([]rune(seg.Text)), 1000)
	}
}

func TestChunkerOverlap(t *testing.T) {
	c := NewChunker(100, 20)
	// 无空白的连续字符，强制硬切，便于验证精确重叠
	text := strings.Repeat("a", 100) + strings.Repeat("b", 100) + strings.Repeat("c", 50)

	segments := c.Split(text)
	require.Greater(t, len(segments), 1)

	for i := 1; i < len(segments); i++ {
		prev := []rune(segments[i-1].Text)
		curr := []rune(segments[i].Text)
		// 后一片段以前一片段的末尾20个字符开头
		assert.Equal(t, string(prev[len(prev)-20:]), string(curr[:20]))
	}
}

func TestChunkerIndexOrder(t *testing.T) {
	c := NewChunker(50, 10)
	text := strings.Repeat("x", 500)

	segments := c.Split(text)
	for i, seg := range segments {
		assert.Equal(t, i, seg.Index)
	}
}

func TestChunkerPrefersSentenceBoundary(t *testing.T) {
	c := NewChunker(100, 10)
	// 句号落在窗口后半段，应在句末处切分而不是硬切
	text := strings.Repeat("a", 80) + ". " + strings.Repeat("b", 100)

	segments := c.Split(text)
	require.Greater(t, len(segments), 1)
	assert.True(t, strings.HasSuffix(segments[0].Text, "."))
}

func TestChunkerCoversAllText(t *testing.T) {
	c := NewChunker(100, 20)
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 30)

	segments := c.Split(text)
	require.NotEmpty(t, segments)

	// 末尾片段必须覆盖文本结尾
	last := segments[len(segments)-1].Text
	assert.True(t, strings.HasSuffix(strings.TrimRight(text, " "), strings.TrimRight(last, " ")))
}

func TestNewChunkerGuards(t *testing.T) {
	c := NewChunker(0, -1)
	assert.Equal(t, 1000, c.chunkSize)
	assert.Equal(t, 0, c.chunkOverlap)

	// 重叠不小于块大小时收缩为四分之一
	c = NewChunker(100, 100)
	assert.Equal(t, 25, c.chunkOverlap)
}
