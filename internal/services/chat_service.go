package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aihub/kbchat-go/internal/config"
	"github.com/aihub/kbchat-go/internal/database"
	"github.com/aihub/kbchat-go/internal/knowledge"
	"github.com/aihub/kbchat-go/internal/logger"
	"github.com/aihub/kbchat-go/internal/models"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const chatSystemPrompt = `You are a helpful AI assistant. Answer questions directly and naturally without referencing sources or context.

CRITICAL INSTRUCTIONS:
- NEVER start responses with "Based on the provided context" or similar phrases
- NEVER mention "sources", "documents", or "context" in your response
- NEVER include filenames or document references
- Answer questions directly as if the information is your own knowledge
- Be helpful, concise, and informative
- If you don't know something, just say "I don't have information about that"

Context from documents:
%s

Answer the user's question naturally without mentioning this context.`

const maxHistoryMessages = 10

// ChatService 对话服务，基于知识检索做增强生成
type ChatService struct {
	client    *openai.Client
	cfg       *config.AIConfig
	retriever *knowledge.Retriever
}

// Source 回答引用的知识来源
type Source struct {
	Filename        string  `json:"filename"`
	FileID          string  `json:"file_id"`
	SimilarityScore float64 `json:"similarity_score"`
	ContentPreview  string  `json:"content_preview"`
}

// ChatResult 一次对话生成的结果
type ChatResult struct {
	Response    string   `json:"response"`
	Sources     []Source `json:"sources"`
	ContextUsed bool     `json:"context_used"`
	Model       string   `json:"model"`
	Error       string   `json:"error,omitempty"`
}

// NewChatService 创建对话服务。未配置API key时client为nil，服务降级运行。
func NewChatService(cfg *config.AIConfig, retriever *knowledge.Retriever) *ChatService {
	var client *openai.Client
	if cfg.OpenAIAPIKey != "" {
		client = openai.NewClient(cfg.OpenAIAPIKey)
	} else {
		logger.Warn("未配置OpenAI API key，对话功能受限")
	}
	return &ChatService{
		client:    client,
		cfg:       cfg,
		retriever: retriever,
	}
}

// GenerateResponse 生成一条回复。
// useRAG为true时先检索知识库，把命中内容拼进系统提示词；
// 历史消息只取最近的10条参与上下文。
func (s *ChatService) GenerateResponse(ctx context.Context, message string, history []models.ChatMessage, useRAG bool) *ChatResult {
	var contextText string
	var sources []Source

	if useRAG {
		results := s.retriever.Retrieve(ctx, message, 0)
		if len(results) > 0 {
			parts := make([]string, len(results))
			for i, r := range results {
				parts[i] = fmt.Sprintf("Source %d (from %s):\n%s\n", i+1, r.Metadata.Filename, r.Content)
				sources = append(sources, Source{
					Filename:        r.Metadata.Filename,
					FileID:          r.Metadata.FileID,
					SimilarityScore: r.SimilarityScore,
					ContentPreview:  r.Preview,
				})
			}
			contextText = strings.Join(parts, "\n")
			logger.Info("对话命中知识库",
				zap.Int("sources", len(sources)),
				zap.Int("context_length", len(contextText)))
		}
	}

	if s.client == nil {
		return s.degradedResult(contextText, sources)
	}

	contextBlock := contextText
	if contextBlock == "" {
		contextBlock = "No relevant context found."
	}

	chatMessages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(chatSystemPrompt, contextBlock)},
	}
	start := 0
	if len(history) > maxHistoryMessages {
		start = len(history) - maxHistoryMessages
	}
	for _, msg := range history[start:] {
		role := openai.ChatMessageRoleUser
		if msg.Sender == models.SenderAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{Role: role, Content: msg.Message})
	}
	chatMessages = append(chatMessages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.cfg.ChatModel,
		Messages:    chatMessages,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: float32(s.cfg.Temperature),
	})
	if err != nil || len(resp.Choices) == 0 {
		logger.Error("对话生成失败", zap.Error(err))
		result := &ChatResult{
			Response: "I apologize, but I encountered an error while generating a response. Please try again.",
			Sources:  []Source{},
			Model:    s.cfg.ChatModel,
		}
		if err != nil {
			result.Error = err.Error()
		}
		return result
	}

	return &ChatResult{
		Response:    resp.Choices[0].Message.Content,
		Sources:     sources,
		ContextUsed: contextText != "",
		Model:       s.cfg.ChatModel,
	}
}

// degradedResult 无API key时的降级回复：有检索结果就直接展示片段
func (s *ChatService) degradedResult(contextText string, sources []Source) *ChatResult {
	if contextText != "" {
		snippet := contextText
		if runes := []rune(snippet); len(runes) > 500 {
			snippet = string(runes[:500]) + "..."
		}
		return &ChatResult{
			Response:    "I found relevant information in your documents but cannot generate a full response without OpenAI API configuration. Here's what I found:\n\n" + snippet,
			Sources:     sources,
			ContextUsed: true,
			Model:       s.cfg.ChatModel,
			Error:       "OpenAI API key not configured",
		}
	}
	return &ChatResult{
		Response: "I apologize, but I encountered an error while generating a response. Please try again.",
		Sources:  []Source{},
		Model:    s.cfg.ChatModel,
		Error:    "OpenAI API key not configured",
	}
}

// Summarize 生成文本摘要，失败时返回固定的兜底文案
func (s *ChatService) Summarize(ctx context.Context, text string, maxWords int) string {
	if maxWords <= 0 {
		maxWords = 200
	}
	prompt := fmt.Sprintf("Please provide a concise summary of the following text in no more than %d words:\n\n%s\n\nSummary:", maxWords, text)

	content, err := s.complete(ctx, prompt)
	if err != nil {
		logger.Error("摘要生成失败", zap.Error(err))
		return "Unable to generate summary."
	}
	return content
}

// SuggestQuestions 基于文本生成n个候选问题
func (s *ChatService) SuggestQuestions(ctx context.Context, text string, n int) []string {
	if n <= 0 {
		n = 3
	}
	prompt := fmt.Sprintf("Based on the following text, generate %d relevant questions that someone might ask about this content:\n\n%s\n\nQuestions:", n, text)

	content, err := s.complete(ctx, prompt)
	if err != nil {
		logger.Error("问题生成失败", zap.Error(err))
		return nil
	}

	var questions []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "1.") || strings.HasPrefix(line, "2.") || strings.HasPrefix(line, "3.") ||
			strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•") {
			q := strings.TrimSpace(strings.TrimLeft(line, "123.-•"))
			if q != "" {
				questions = append(questions, q)
			}
		}
	}
	if len(questions) > n {
		questions = questions[:n]
	}
	return questions
}

func (s *ChatService) complete(ctx context.Context, prompt string) (string, error) {
	if s.client == nil {
		return "", knowledge.ErrProviderUnavailable
	}
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.cfg.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: float32(s.cfg.Temperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// SaveExchange 持久化一轮问答到对话记录
func (s *ChatService) SaveExchange(ctx context.Context, conversationID uint, userMessage string, result *ChatResult) error {
	if database.DB == nil {
		return nil
	}
	now := time.Now()
	messages := []models.ChatMessage{
		{ConversationID: conversationID, Sender: models.SenderUser, Message: userMessage, CreateTime: now},
		{ConversationID: conversationID, Sender: models.SenderAssistant, Message: result.Response, ContextUsed: result.ContextUsed, CreateTime: now},
	}
	return database.DB.WithContext(ctx).Create(&messages).Error
}

// History 加载对话的历史消息，按时间升序
func (s *ChatService) History(ctx context.Context, conversationID uint, limit int) ([]models.ChatMessage, error) {
	if database.DB == nil || conversationID == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = maxHistoryMessages
	}
	var messages []models.ChatMessage
	err := database.DB.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("create_time DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	// 倒序查询取最近limit条，再翻回时间升序
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
