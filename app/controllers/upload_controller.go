package controllers

import (
	"errors"
	"net/http"

	"github.com/aihub/kbchat-go/internal/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UploadController 文件上传与处理状态接口
type UploadController struct {
	BaseController
}

// Upload POST /api/v1/upload
// multipart表单字段名为file，接收后立即返回，处理异步进行
func (c *UploadController) Upload() {
	file, header, err := c.GetFile("file")
	if err != nil {
		c.JSONError(http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	resp, err := documentService.Upload(
		c.Ctx.Request.Context(),
		header.Filename,
		file,
		header.Size,
		header.Header.Get("Content-Type"),
	)
	if err != nil {
		logger.Error("上传处理失败", zap.String("filename", header.Filename), zap.Error(err))
		c.JSONError(http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Status GET /api/v1/upload/status/:file_id
func (c *UploadController) Status() {
	fileID := c.Ctx.Input.Param(":file_id")
	if fileID == "" {
		c.JSONError(http.StatusBadRequest, "missing file_id")
		return
	}

	status, err := documentService.GetStatus(c.Ctx.Request.Context(), fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSONError(http.StatusNotFound, "file not found")
			return
		}
		logger.Error("查询处理状态失败", zap.String("file_id", fileID), zap.Error(err))
		c.JSONError(http.StatusInternalServerError, "failed to query status")
		return
	}

	c.JSON(http.StatusOK, status)
}

// Stats GET /api/v1/upload/index/stats
func (c *UploadController) Stats() {
	c.JSON(http.StatusOK, documentService.Stats())
}
