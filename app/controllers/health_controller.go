package controllers

import (
	"net/http"
	"time"

	"github.com/aihub/kbchat-go/internal/database"
)

// RootController serves the service banner.
type RootController struct {
	BaseController
}

// Index GET /
func (c *RootController) Index() {
	c.JSON(http.StatusOK, map[string]interface{}{
		"service": "kbchat",
		"message": "Knowledge base chat API",
		"version": "1.0.0",
	})
}

// HealthController serves liveness and dependency checks.
type HealthController struct {
	BaseController
}

// Health GET /health
func (c *HealthController) Health() {
	checks := map[string]string{}

	if database.DB != nil {
		if sqlDB, err := database.DB.DB(); err == nil && sqlDB.Ping() == nil {
			checks["database"] = "ok"
		} else {
			checks["database"] = "unavailable"
		}
	} else {
		checks["database"] = "disabled"
	}

	if database.RedisClient != nil {
		if err := database.RedisClient.Ping(c.Ctx.Request.Context()).Err(); err == nil {
			checks["redis"] = "ok"
		} else {
			checks["redis"] = "unavailable"
		}
	} else {
		checks["redis"] = "disabled"
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}
