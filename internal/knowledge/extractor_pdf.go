package knowledge

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// PDFParser PDF文件解析器
type PDFParser struct{}

func (p *PDFParser) Supports(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".pdf"
}

// Parse 逐页提取文本，换行符连接。单页提取失败跳过该页。
func (p *PDFParser) Parse(reader io.Reader, filename string) (string, error) {
	pdfBytes, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("读取PDF文件失败: %w", err)
	}

	pdfReader, err := model.NewPdfReader(bytes.NewReader(pdfBytes))
	if err != nil {
		return "", fmt.Errorf("解析PDF失败: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("获取PDF页数失败: %w", err)
	}

	var textBuilder strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			continue
		}

		ex, err := extractor.New(page)
		if err != nil {
			continue
		}

		text, err := ex.ExtractText()
		if err != nil {
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}
