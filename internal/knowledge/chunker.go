package knowledge

import (
	"strings"
	"unicode"
)

// Segment 分块后的文本片段
type Segment struct {
	Index int
	Text  string
}

// Chunker 带重叠的文本分块器。
// 优先在段落、句子、词边界处切分，找不到边界时按字符硬切。
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker 创建分块器
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: overlap,
	}
}

// Split 将文本切分为有序的重叠片段。
// 非空文本至少产生一个片段；后一片段从前一片段结束位置回退overlap处开始。
func (c *Chunker) Split(text string) []Segment {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	var segments []Segment

	start := 0
	for start < len(runes) {
		end := start + c.chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = c.breakPoint(runes, start, end)
		}

		segText := string(runes[start:end])
		if strings.TrimSpace(segText) != "" {
			segments = append(segments, Segment{
				Index: len(segments),
				Text:  segText,
			})
		}

		if end == len(runes) {
			break
		}

		next := end - c.chunkOverlap
		if next <= start {
			// 重叠过大时强制前进，避免死循环
			next = start + 1
		}
		start = next
	}

	return segments
}

// breakPoint 在窗口后半段内回找最近的结构边界。
// 优先级：空行 > 句末标点 > 空白字符；都没有则硬切。
func (c *Chunker) breakPoint(runes []rune, start, end int) int {
	minBreak := start + c.chunkSize/2

	for i := end - 1; i > minBreak; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i + 1
		}
	}

	for i := end - 1; i > minBreak; i-- {
		switch runes[i] {
		case '。', '！', '？':
			return i + 1
		case '.', '!', '?':
			if i+1 < end && unicode.IsSpace(runes[i+1]) {
				return i + 1
			}
		}
	}

	for i := end - 1; i > minBreak; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}

	return end
}
