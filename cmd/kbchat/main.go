package main

import (
	"log"
	"strconv"

	"github.com/aihub/kbchat-go/app/bootstrap"
	"github.com/aihub/kbchat-go/internal/config"
	"github.com/aihub/kbchat-go/internal/logger"
	"github.com/beego/beego/v2/server/web"
	"go.uber.org/zap"
)

func main() {
	app, err := bootstrap.Init()
	if err != nil {
		log.Fatalf("failed to bootstrap application: %v", err)
	}
	defer app.Shutdown()

	// 配置Beego全局设置
	web.BConfig.AppName = "kbchat"
	web.BConfig.CopyRequestBody = true
	web.BConfig.MaxMemory = 1 << 26 // 64MB上传上限

	if p, err := strconv.Atoi(config.AppConfig.Server.Port); err == nil {
		web.BConfig.Listen.HTTPPort = p
	} else {
		web.BConfig.Listen.HTTPPort = 8000
	}

	logger.Info("🚀 Starting kbchat service",
		zap.Int("http_port", web.BConfig.Listen.HTTPPort),
		zap.String("env", config.AppConfig.Server.Env))

	web.Run()
}
