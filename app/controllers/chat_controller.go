package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/aihub/kbchat-go/internal/knowledge"
	"github.com/aihub/kbchat-go/internal/logger"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = validator.New()

// ChatRequest 对话请求。Type控制检索策略：chat自动判断，rag/no-rag强制
type ChatRequest struct {
	Message        string `json:"message" validate:"required,min=1,max=4000"`
	ConversationID uint   `json:"conversation_id,omitempty"`
	Type           string `json:"type,omitempty" validate:"omitempty,oneof=chat rag no-rag"`
}

// ChatResponse 对话响应
type ChatResponse struct {
	Response       string            `json:"response"`
	Sources        interface{}       `json:"sources"`
	ContextUsed    bool              `json:"context_used"`
	RAGUsed        bool              `json:"rag_used"`
	Model          string            `json:"model"`
	ConversationID uint              `json:"conversation_id,omitempty"`
	Error          string            `json:"error,omitempty"`
}

// ChatController 对话接口
type ChatController struct {
	BaseController
}

// Chat POST /api/v1/chat
func (c *ChatController) Chat() {
	var req ChatRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		c.JSONError(http.StatusBadRequest, err.Error())
		return
	}
	if req.Type == "" {
		req.Type = knowledge.ModeChat
	}

	ctx := c.Ctx.Request.Context()

	history, err := chatService.History(ctx, req.ConversationID, 0)
	if err != nil {
		logger.Warn("加载对话历史失败", zap.Uint("conversation_id", req.ConversationID), zap.Error(err))
	}

	useRAG := knowledge.ShouldRetrieve(req.Message, req.Type)
	result := chatService.GenerateResponse(ctx, req.Message, history, useRAG)

	if req.ConversationID != 0 {
		if err := chatService.SaveExchange(ctx, req.ConversationID, req.Message, result); err != nil {
			logger.Warn("对话消息落库失败", zap.Uint("conversation_id", req.ConversationID), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, ChatResponse{
		Response:       result.Response,
		Sources:        result.Sources,
		ContextUsed:    result.ContextUsed,
		RAGUsed:        useRAG,
		Model:          result.Model,
		ConversationID: req.ConversationID,
		Error:          result.Error,
	})
}
