package knowledge

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/unidoc/unioffice/document"
)

// WordParser Word文档解析器
type WordParser struct{}

func (p *WordParser) Supports(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".docx" || ext == ".doc"
}

// Parse 按段落提取文本，换行符连接。旧版.doc无法解析时返回错误，
// 由上层降级为空文本。
func (p *WordParser) Parse(reader io.Reader, filename string) (string, error) {
	docBytes, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("读取Word文件失败: %w", err)
	}

	doc, err := document.Read(bytes.NewReader(docBytes), int64(len(docBytes)))
	if err != nil {
		return "", fmt.Errorf("解析Word文档失败: %w", err)
	}
	defer doc.Close()

	var textBuilder strings.Builder
	for _, para := range doc.Paragraphs() {
		for _, run := range para.Runs() {
			textBuilder.WriteString(run.Text())
		}
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}
