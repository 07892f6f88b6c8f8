// Package router 管理路由配置，负责将路径和处理器绑定到 gin 引擎.
// 处理器实现由 pkg/internal/handle 提供.
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterAPIRoutes 注册全部业务路由到 /api/v1.
func RegisterAPIRoutes(e *gin.Engine) {
	api := e.Group("/api/v1")

	RegisterFilesRoutes(api)
	RegisterDirectoriesRoutes(api)
	RegisterHealthCheckRoute(api)
}
