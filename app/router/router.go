package router

import (
	"github.com/aihub/kbchat-go/app/controllers"
	"github.com/aihub/kbchat-go/app/middleware"
	"github.com/beego/beego/v2/server/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Init registers all routes. Must be called after services are wired.
func Init() {
	web.InsertFilter("/*", web.BeforeRouter, middleware.CORSMiddleware)

	web.Router("/", &controllers.RootController{}, "get:Index")
	web.Router("/health", &controllers.HealthController{}, "get:Health")
	web.Handler("/metrics", promhttp.Handler())

	// 文档上传与处理状态
	uploadController := &controllers.UploadController{}
	// 具体路由必须在参数路由之前注册
	web.Router("/api/v1/upload/index/stats", uploadController, "get:Stats")
	web.Router("/api/v1/upload/status/:file_id", uploadController, "get:Status")
	web.Router("/api/v1/upload", uploadController, "post:Upload")

	// 对话
	web.Router("/api/v1/chat", &controllers.ChatController{}, "post:Chat")

	// 管理接口
	web.Router("/admin/clear_index", &controllers.AdminController{}, "post:ClearIndex")
}
