package knowledge

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// JSONParser JSON文件解析器。
// 扁平化为每行 "path: value"，仅收集字符串叶子节点。
// 键链以 "/" 连接，数组下标记作 "[i]"。
type JSONParser struct{}

func (p *JSONParser) Supports(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".json"
}

func (p *JSONParser) Parse(reader io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("读取JSON文件失败: %w", err)
	}

	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("无效的JSON文档")
	}

	var lines []string
	flattenJSON("", gjson.ParseBytes(data), &lines)
	return strings.Join(lines, "\n"), nil
}

func flattenJSON(path string, value gjson.Result, lines *[]string) {
	switch {
	case value.IsObject():
		value.ForEach(func(key, val gjson.Result) bool {
			flattenJSON(joinJSONPath(path, key.String()), val, lines)
			return true
		})
	case value.IsArray():
		index := 0
		value.ForEach(func(_, val gjson.Result) bool {
			flattenJSON(fmt.Sprintf("%s[%d]", path, index), val, lines)
			index++
			return true
		})
	case value.Type == gjson.String:
		*lines = append(*lines, fmt.Sprintf("%s: %s", path, value.String()))
	}
}

func joinJSONPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "/" + key
}
