package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/handle"
)

// RegisterFilesRoutes 注册文件与版本相关路由.
func RegisterFilesRoutes(g *gin.RouterGroup) {
	filesRoutes := g.Group("/files")
	{
		// 提交入库任务（异步，只返回受理）
		filesRoutes.POST("/checkin", handle.CheckIn)
		// 文件列表（带激活版本）
		filesRoutes.GET("", handle.ListFiles)

		// 单个文件的版本操作
		singleGroup := filesRoutes.Group("/:fileId")
		{
			versionGroup := singleGroup.Group("/versions")
			{
				versionGroup.GET("", handle.ListFileVersions)          // 版本列表
				versionGroup.GET("/latest", handle.GetLatestVersion)   // 最新版本
				versionGroup.POST("/restore", handle.RestoreVersion)   // 恢复指定版本
				versionGroup.DELETE("/:version", handle.DeleteVersion) // 逻辑删除版本
			}
		}
	}
}

// RegisterDirectoriesRoutes 注册目录相关路由.
func RegisterDirectoriesRoutes(g *gin.RouterGroup) {
	dirRoutes := g.Group("/directories")
	{
		dirRoutes.POST("", handle.SetWorkingDirectory)
		dirRoutes.GET("", handle.ListFolders)
	}
}
