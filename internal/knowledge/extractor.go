package knowledge

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/aihub/kbchat-go/internal/logger"
	"go.uber.org/zap"
)

// FileParser 文件解析器接口
type FileParser interface {
	Parse(reader io.Reader, filename string) (string, error)
	Supports(filename string) bool
}

// TextExtractor 按扩展名分发的文本提取器
type TextExtractor struct {
	parsers []FileParser
}

// NewTextExtractor 创建文本提取器
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{
		parsers: []FileParser{
			&PDFParser{},
			&WordParser{},
			&TripleParser{},
			&JSONParser{},
			&TextParser{},
		},
	}
}

// Extract 提取纯文本。提取失败不向调用方抛错：
// 记录日志并降级为空串，由流水线判定空文本的终态。
func (e *TextExtractor) Extract(reader io.Reader, filename string) string {
	for _, parser := range e.parsers {
		if parser.Supports(filename) {
			text, err := parser.Parse(reader, filename)
			if err != nil {
				logger.Error("文本提取失败",
					zap.String("filename", filename),
					zap.Error(err))
				return ""
			}
			return text
		}
	}

	logger.Warn("不支持的文件格式", zap.String("filename", filename))
	return ""
}

// Supports 判断文件名是否有对应的解析器
func (e *TextExtractor) Supports(filename string) bool {
	for _, parser := range e.parsers {
		if parser.Supports(filename) {
			return true
		}
	}
	return false
}

// SupportedFormats 返回支持的扩展名列表
func (e *TextExtractor) SupportedFormats() []string {
	return []string{".pdf", ".docx", ".doc", ".txt", ".rdf", ".nt", ".owl", ".xml", ".json"}
}

// TextParser 纯文本解析器
type TextParser struct{}

func (p *TextParser) Supports(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".txt"
}

func (p *TextParser) Parse(reader io.Reader, filename string) (string, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
