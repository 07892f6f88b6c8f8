// Package api 对外暴露 HTTP 路由注册入口，供嵌入方复用.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/router"
)

// RegisterRoutes 注册全部业务路由到传入的 gin 引擎.
func RegisterRoutes(e *gin.Engine) *gin.Engine {
	router.RegisterAPIRoutes(e)

	return e
}
