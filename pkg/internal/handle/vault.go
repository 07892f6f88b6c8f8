package handle

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/internal/types"
	"github.com/yeisme/filevault/pkg/log"
)

// respondServiceError 将服务层错误类别翻译为 HTTP 状态码.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// parseFileID 解析路径参数中的文件 ID.
func parseFileID(c *gin.Context) (uint, bool) {
	raw := c.Param("fileId")

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fileId"})
		return 0, false
	}

	return uint(id), true
}

// CheckIn 提交入库任务.
//
//	@Summary		提交入库任务
//	@Description	受理目录/文件入库请求并立即返回任务 ID；实际处理由 worker 异步完成，结果经由版本查询或日志观察
//	@Tags			入库
//	@Accept			json
//	@Produce		json
//	@Param			req	body		types.CheckInRequest	true	"入库请求"
//	@Success		202	{object}	types.CheckInAcceptedResponse
//	@Failure		400	{object}	map[string]string
//	@Failure		500	{object}	map[string]string
//	@Router			/api/v1/files/checkin [post]
func CheckIn(c *gin.Context) {
	l := ctxPkg.WithTraceContext(c.Request.Context(), *log.Logger())

	user, err := checkUser(c)
	if user == "" || err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	var req types.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.SubmitCheckIn(c.Request.Context(), user, &req)
	if err != nil {
		l.Error().Err(err).Msg("submit check-in failed")
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusAccepted, resp)
}

// ListFiles 列出用户全部文件及激活版本.
//
//	@Summary		文件列表
//	@Description	列出用户的全部文件，每个文件附带当前激活版本的版本号、大小与校验和
//	@Tags			文件
//	@Produce		json
//	@Success		200	{object}	types.ListFilesResponse
//	@Failure		400	{object}	map[string]string
//	@Failure		500	{object}	map[string]string
//	@Router			/api/v1/files [get]
func ListFiles(c *gin.Context) {
	l := ctxPkg.WithTraceContext(c.Request.Context(), *log.Logger())

	user, err := checkUser(c)
	if user == "" || err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.ListFiles(c.Request.Context(), user)
	if err != nil {
		l.Error().Err(err).Msg("list files failed")
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListFileVersions 获取指定文件的版本列表.
//
//	@Summary		文件版本列表
//	@Description	列出文件的全部未删除版本，标注用户当前激活的版本
//	@Tags			文件版本
//	@Produce		json
//	@Param			fileId	path		int	true	"文件 ID"
//	@Success		200		{object}	types.ListFileVersionsResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Router			/api/v1/files/{fileId}/versions [get]
func ListFileVersions(c *gin.Context) {
	l := ctxPkg.WithTraceContext(c.Request.Context(), *log.Logger())

	user, err := checkUser(c)
	if user == "" || err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	fileID, ok := parseFileID(c)
	if !ok {
		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.ListFileVersions(c.Request.Context(), user, fileID)
	if err != nil {
		l.Error().Err(err).Msg("list versions failed")
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetLatestVersion 获取文件最新版本.
//
//	@Summary		最新版本
//	@Description	返回文件最高版本的存储键与下载地址（有版本令牌时附加 ?versionId=）
//	@Tags			文件版本
//	@Produce		json
//	@Param			fileId	path		int	true	"文件 ID"
//	@Success		200		{object}	types.LatestVersionResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Router			/api/v1/files/{fileId}/versions/latest [get]
func GetLatestVersion(c *gin.Context) {
	l := ctxPkg.WithTraceContext(c.Request.Context(), *log.Logger())

	user, err := checkUser(c)
	if user == "" || err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	fileID, ok := parseFileID(c)
	if !ok {
		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.GetLatestVersion(c.Request.Context(), user, fileID)
	if err != nil {
		l.Error().Err(err).Msg("get latest version failed")
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// RestoreVersion 恢复指定版本到磁盘.
//
//	@Summary		恢复版本
//	@Description	将指定版本的内容下载回文件的磁盘路径；只有落盘成功后激活指针才会移动，latest_version 保持不变
//	@Tags			文件版本
//	@Accept			json
//	@Produce		json
//	@Param			fileId	path		int								true	"文件 ID"
//	@Param			req		body		types.RestoreVersionRequest		true	"恢复请求"
//	@Success		200		{object}	types.RestoreVersionResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Router			/api/v1/files/{fileId}/versions/restore [post]
func RestoreVersion(c *gin.Context) {
	l := ctxPkg.WithTraceContext(c.Request.Context(), *log.Logger())

	user, err := checkUser(c)
	if user == "" || err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	fileID, ok := parseFileID(c)
	if !ok {
		return
	}

	var req types.RestoreVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.RestoreVersionToDirectory(c.Request.Context(), user, fileID, req.VersionNumber)
	if err != nil {
		l.Error().Err(err).Msg("restore version failed")
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteVersion 逻辑删除指定版本.
//
//	@Summary		删除版本
//	@Description	逻辑删除指定版本（物理行与对象存储负载保留）；已删除或不存在时返回 404
//	@Tags			文件版本
//	@Produce		json
//	@Param			fileId	path		int	true	"文件 ID"
//	@Param			version	path		int	true	"版本号"
//	@Success		200		{object}	types.DeleteVersionResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Router			/api/v1/files/{fileId}/versions/{version} [delete]
func DeleteVersion(c *gin.Context) {
	l := ctxPkg.WithTraceContext(c.Request.Context(), *log.Logger())

	user, err := checkUser(c)
	if user == "" || err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	fileID, ok := parseFileID(c)
	if !ok {
		return
	}

	versionNumber, err := strconv.Atoi(c.Param("version"))
	if err != nil || versionNumber < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid version number"})
		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.DeleteFileVersion(c.Request.Context(), user, fileID, versionNumber)
	if err != nil {
		l.Error().Err(err).Msg("delete version failed")
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// SetWorkingDirectory 登记工作目录.
//
//	@Summary		登记工作目录
//	@Description	将一个绝对路径登记为入库操作的工作目录根；同一路径至多一行，重复登记幂等
//	@Tags			目录
//	@Accept			json
//	@Produce		json
//	@Param			req	body		types.SetWorkingDirectoryRequest	true	"工作目录请求"
//	@Success		200	{object}	types.FolderInfo
//	@Failure		400	{object}	map[string]string
//	@Failure		403	{object}	map[string]string
//	@Failure		500	{object}	map[string]string
//	@Router			/api/v1/directories [post]
func SetWorkingDirectory(c *gin.Context) {
	l := ctxPkg.WithTraceContext(c.Request.Context(), *log.Logger())

	user, err := checkUser(c)
	if user == "" || err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	var req types.SetWorkingDirectoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.SetWorkingDirectory(c.Request.Context(), user, &req)
	if err != nil {
		l.Error().Err(err).Msg("set working directory failed")
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListFolders 列出用户文件夹.
//
//	@Summary		文件夹列表
//	@Description	列出用户全部未删除的文件夹（含工作目录标记）
//	@Tags			目录
//	@Produce		json
//	@Success		200	{object}	types.ListFoldersResponse
//	@Failure		400	{object}	map[string]string
//	@Failure		500	{object}	map[string]string
//	@Router			/api/v1/directories [get]
func ListFolders(c *gin.Context) {
	l := ctxPkg.WithTraceContext(c.Request.Context(), *log.Logger())

	user, err := checkUser(c)
	if user == "" || err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.ListFolders(c.Request.Context(), user)
	if err != nil {
		l.Error().Err(err).Msg("list folders failed")
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}
