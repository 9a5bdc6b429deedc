package knowledge

import "errors"

var (
	// ErrEmptyExtraction 文档未能提取出任何文本，文档处理终止。
	// 错误文案原样写入文档记录并通过状态接口返回，保持首字母大写。
	ErrEmptyExtraction = errors.New("No text could be extracted")

	// ErrProviderUnavailable 嵌入服务未配置API密钥
	ErrProviderUnavailable = errors.New("embedding provider not configured")

	// ErrDimensionMismatch 向量维度与索引维度不一致
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
