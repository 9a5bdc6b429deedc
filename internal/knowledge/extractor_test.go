package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractorPlainText(t *testing.T) {
	e := NewTextExtractor()

	text := e.Extract(strings.NewReader("hello\nworld"), "notes.txt")
	assert.Equal(t, "hello\nworld", text)
}

func TestExtractorUnsupportedFormat(t *testing.T) {
	e := NewTextExtractor()

	// 不支持的格式降级为空串，不panic不报错
	text := e.Extract(strings.NewReader("binary"), "archive.zip")
	assert.Equal(t, "", text)
}

func TestExtractorSupports(t *testing.T) {
	e := NewTextExtractor()

	for _, name := range []string{"a.pdf", "b.docx", "c.txt", "d.rdf", "e.nt", "f.owl", "g.xml", "h.json", "I.TXT"} {
		assert.True(t, e.Supports(name), name)
	}
	assert.False(t, e.Supports("a.zip"))
	assert.False(t, e.Supports("noext"))
}

func TestExtractorJSON(t *testing.T) {
	e := NewTextExtractor()
	payload := `{"title":"Guide","tags":["go","rag"],"meta":{"author":"li"},"count":3}`

	text := e.Extract(strings.NewReader(payload), "doc.json")

	// 仅收集字符串叶子，键链用 / 连接，数组下标记作 [i]
	assert.Contains(t, text, "title: Guide")
	assert.Contains(t, text, "tags[0]: go")
	assert.Contains(t, text, "tags[1]: rag")
	assert.Contains(t, text, "meta/author: li")
	assert.NotContains(t, text, "count")
}

func TestExtractorInvalidJSON(t *testing.T) {
	e := NewTextExtractor()

	text := e.Extract(strings.NewReader("{not valid"), "bad.json")
	assert.Equal(t, "", text)
}

func TestExtractorXMLFallback(t *testing.T) {
	e := NewTextExtractor()
	payload := `<catalog><book><title>Go in Practice</title><year>2024</year></book></catalog>`

	// 非RDF的XML走扁平化降级路径
	text := e.Extract(strings.NewReader(payload), "catalog.xml")
	assert.Contains(t, text, "Go in Practice")
	assert.Contains(t, text, "2024")
}

func TestExtractorNTriples(t *testing.T) {
	e := NewTextExtractor()
	payload := `<http://example.org/alice> <http://www.w3.org/2000/01/rdf-schema#label> "Alice" .
<http://example.org/alice> <http://example.org/knows> <http://example.org/bob> .
`

	text := e.Extract(strings.NewReader(payload), "graph.nt")

	// 主语使用rdfs:label，宾语回退到IRI尾段
	assert.Contains(t, text, "Alice knows bob.")
}

func TestExtractorEmptyFile(t *testing.T) {
	e := NewTextExtractor()

	text := e.Extract(strings.NewReader(""), "empty.txt")
	assert.Equal(t, "", text)
}

func TestSupportedFormats(t *testing.T) {
	e := NewTextExtractor()
	require.NotEmpty(t, e.SupportedFormats())
	assert.Contains(t, e.SupportedFormats(), ".pdf")
	assert.Contains(t, e.SupportedFormats(), ".json")
}
