package controllers

import (
	"net/http"

	"github.com/aihub/kbchat-go/internal/logger"
	"go.uber.org/zap"
)

// AdminController 运维管理接口
type AdminController struct {
	BaseController
}

// ClearIndex POST /admin/clear_index
// 清空向量索引并持久化空状态，已入库的文档记录保留
func (c *AdminController) ClearIndex() {
	if err := documentService.ClearIndex(); err != nil {
		logger.Error("清空索引失败", zap.Error(err))
		c.JSONError(http.StatusInternalServerError, "failed to clear index")
		return
	}
	c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Index cleared successfully",
		"stats":   documentService.Stats(),
	})
}
