package knowledge

import (
	"strings"

	"github.com/aihub/kbchat-go/internal/metrics"
)

// 消息类型，控制是否强制启用/关闭知识检索
const (
	ModeChat  = "chat"
	ModeRAG   = "rag"
	ModeNoRAG = "no-rag"
)

// simplePhrases 寒暄与客套语，直接回答无需查库
var simplePhrases = []string{
	"hi", "hello", "hey", "thanks", "thank you", "bye", "goodbye",
	"how are you", "what's up", "good morning", "good afternoon",
	"good evening", "nice to meet you", "please", "ok", "okay",
	"yes", "no",
}

// bareQuestionWords 单独出现的疑问词，缺少检索目标
var bareQuestionWords = []string{
	"what", "what?", "how", "how?", "why", "why?", "when", "when?",
	"where", "where?", "who", "who?", "?",
}

// systemKeywords 询问系统本身的关键词，知识库里有对应文档
var systemKeywords = []string{
	"this system", "the system", "architecture", "features",
	"deployment", "pipeline",
}

// botIdentityPhrases 问助手身份的话，答案不在知识库里
var botIdentityPhrases = []string{
	"who are you", "what are you", "what can you do", "how do you work",
}

// questionIndicators 疑问特征，子串命中即算
var questionIndicators = []string{
	"what", "how", "why", "when", "where", "who", "which",
	"can", "could", "would", "should", "is", "are", "does",
	"do", "did", "?",
}

// infoRequestPhrases 明确的信息索取表达
var infoRequestPhrases = []string{
	"tell me", "explain", "describe", "show me", "find", "search",
	"look for", "about",
}

// ShouldRetrieve 判断一条用户消息是否需要走知识检索。
// 规则按序评估，先命中者决定结果：
//  1. 消息类型显式指定rag/no-rag时直接生效
//  2. 过短的消息不检索
//  3. 光秃秃的疑问词不检索
//  4. 寒暄客套不检索
//  5. 问系统本身的必检索
//  6. 问助手身份的不检索
//  7. 带疑问特征的检索
//  8. 信息索取表达检索
//  9. 较长消息默认检索
//  10. 其余不检索
func ShouldRetrieve(message, mode string) bool {
	decision := shouldRetrieve(message, mode)
	if decision {
		metrics.RAGDecisions.WithLabelValues("retrieve").Inc()
	} else {
		metrics.RAGDecisions.WithLabelValues("skip").Inc()
	}
	return decision
}

func shouldRetrieve(message, mode string) bool {
	switch mode {
	case ModeNoRAG:
		return false
	case ModeRAG:
		return true
	}

	normalized := strings.ToLower(strings.TrimSpace(message))

	if len(normalized) <= 1 {
		return false
	}

	for _, w := range bareQuestionWords {
		if normalized == w {
			return false
		}
	}

	for _, phrase := range simplePhrases {
		if normalized == phrase || strings.HasPrefix(normalized, phrase) {
			return false
		}
	}

	for _, kw := range systemKeywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}

	for _, phrase := range botIdentityPhrases {
		if strings.Contains(normalized, phrase) {
			return false
		}
	}

	for _, ind := range questionIndicators {
		if strings.Contains(normalized, ind) {
			return true
		}
	}

	for _, phrase := range infoRequestPhrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}

	return len(normalized) > 20
}
