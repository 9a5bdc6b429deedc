package knowledge

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/knakk/rdf"
)

const rdfsLabelIRI = "http://www.w3.org/2000/01/rdf-schema#label"

// TripleParser RDF/XML类文件解析器。
// 优先尝试三元组抽取；解析失败或无产出时降级为通用XML扁平化。
type TripleParser struct{}

func (p *TripleParser) Supports(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".rdf", ".nt", ".owl", ".xml":
		return true
	}
	return false
}

func (p *TripleParser) Parse(reader io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("读取文件失败: %w", err)
	}

	if text := extractTriples(data, tripleFormat(filename)); text != "" {
		return text, nil
	}
	return flattenXML(data)
}

func tripleFormat(filename string) rdf.Format {
	if strings.ToLower(filepath.Ext(filename)) == ".nt" {
		return rdf.NTriples
	}
	return rdf.RDFXML
}

// extractTriples 将三元组图谱转为每行一句的可读文本。
// 标签解析优先级：rdfs:label > IRI路径尾段 > 字面量自身文本。
// 三元组遍历顺序依赖解析器实现，不保证稳定。
func extractTriples(data []byte, format rdf.Format) string {
	dec := rdf.NewTripleDecoder(bytes.NewReader(data), format)
	triples, err := dec.DecodeAll()
	if err != nil || len(triples) == 0 {
		return ""
	}

	// 收集图谱内的rdfs:label标注
	labels := make(map[string]string)
	for _, t := range triples {
		if t.Pred.String() == rdfsLabelIRI {
			labels[t.Subj.String()] = t.Obj.String()
		}
	}

	var lines []string
	for _, t := range triples {
		line := fmt.Sprintf("%s %s %s.",
			termLabel(t.Subj, labels),
			termLabel(t.Pred, labels),
			termLabel(t.Obj, labels))
		if strings.TrimSpace(line) != "." {
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n")
}

func termLabel(term rdf.Term, labels map[string]string) string {
	value := term.String()

	if _, ok := term.(rdf.Literal); ok {
		return value
	}

	if label, ok := labels[value]; ok {
		return label
	}

	// 取IRI的fragment或路径尾段
	if idx := strings.LastIndexAny(value, "#/"); idx >= 0 && idx < len(value)-1 {
		return value[idx+1:]
	}
	return value
}

// flattenXML 深度优先前序遍历，逐元素收集去除空白后的直接文本。
// 忽略属性。
func flattenXML(data []byte) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return "", fmt.Errorf("解析XML失败: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return "", fmt.Errorf("XML文档没有根元素")
	}

	var lines []string
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		if text := strings.TrimSpace(el.Text()); text != "" {
			lines = append(lines, text)
		}
		for _, child := range el.ChildElements() {
			walk(child)
		}
	}
	walk(root)

	return strings.Join(lines, "\n"), nil
}
