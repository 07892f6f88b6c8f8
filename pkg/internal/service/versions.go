package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/types"
	nlog "github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/queue"
)

// ListFiles 列出用户全部文件及各自的激活版本.
func (vs *VaultService) ListFiles(ctx context.Context, userID string) (*types.ListFilesResponse, error) {
	var rows []struct {
		model.File
		VersionNumber int
		SizeInBytes   int64
		Checksum      string
	}

	err := vs.dbClient.WithContext(ctx).Table("user_files").
		Select("files.*, versions.version_number, versions.size_in_bytes, versions.checksum").
		Joins("JOIN files ON files.file_id = user_files.file_id").
		Joins("JOIN versions ON versions.version_id = user_files.version_id").
		Where("user_files.user_id = ? AND user_files.is_active = ? AND user_files.is_deleted = ?",
			userID, true, false).
		Where("files.is_deleted = ?", false).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list files for %s: %w", userID, err)
	}

	files := make([]types.FileInfo, 0, len(rows))
	for _, r := range rows {
		files = append(files, types.FileInfo{
			FileID:              r.FileID,
			FileName:            r.FileName,
			FilePath:            r.FilePath,
			FolderID:            r.FolderID,
			LatestVersion:       r.LatestVersion,
			ActiveVersionNumber: r.VersionNumber,
			SizeInBytes:         r.SizeInBytes,
			Checksum:            r.Checksum,
			UpdatedAt:           r.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	return &types.ListFilesResponse{Files: files, Total: len(files)}, nil
}

// ListFileVersions 列出文件的全部未删除版本，标注用户当前激活的版本.
func (vs *VaultService) ListFileVersions(ctx context.Context, userID string, fileID uint) (*types.ListFileVersionsResponse, error) {
	db := vs.dbClient.WithContext(ctx)

	if _, err := userFileFor(db, userID, fileID, false); err != nil {
		return nil, err
	}

	activeVersionID := uint(0)
	if uf, err := userFileFor(db, userID, fileID, true); err == nil {
		activeVersionID = uf.VersionID
	}

	var versions []model.Version

	err := db.Where("file_id = ? AND is_deleted = ?", fileID, false).
		Order("version_number ASC").Find(&versions).Error
	if err != nil {
		return nil, fmt.Errorf("list versions of file %d: %w", fileID, err)
	}

	infos := make([]types.VersionInfo, 0, len(versions))
	for _, v := range versions {
		infos = append(infos, types.VersionInfo{
			VersionID:     v.VersionID,
			VersionNumber: v.VersionNumber,
			SizeInBytes:   v.SizeInBytes,
			Checksum:      v.Checksum,
			StorageKey:    v.S3Key,
			URL:           BuildDownloadURL(v.S3Key, v.S3VersionID),
			IsActive:      v.VersionID == activeVersionID,
			CreatedAt:     v.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return &types.ListFileVersionsResponse{FileID: fileID, Versions: infos, Total: len(infos)}, nil
}

// GetLatestVersion 返回文件最高版本的存储键与下载地址.
// 用户需通过激活或历史 UserFile 行持有该文件，否则报"未找到".
func (vs *VaultService) GetLatestVersion(ctx context.Context, userID string, fileID uint) (*types.LatestVersionResponse, error) {
	db := vs.dbClient.WithContext(ctx)

	if _, err := userFileFor(db, userID, fileID, false); err != nil {
		return nil, err
	}

	var version model.Version

	err := db.Where("file_id = ? AND is_deleted = ?", fileID, false).
		Order("version_number DESC").First(&version).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no versions for file %d", ErrNotFound, fileID)
		}

		return nil, fmt.Errorf("query latest version of file %d: %w", fileID, err)
	}

	return &types.LatestVersionResponse{
		FileID:        fileID,
		VersionNumber: version.VersionNumber,
		StorageKey:    version.S3Key,
		URL:           BuildDownloadURL(version.S3Key, version.S3VersionID),
		SizeInBytes:   version.SizeInBytes,
		Checksum:      version.Checksum,
	}, nil
}

// RestoreVersionToDirectory 把指定版本的字节下载回文件的磁盘路径，
// 成功落盘之后才移动激活指针——绝不提前，避免指针指向用户本地并不存在的内容.
// latest_version 保持不变：恢复不是新版本.
func (vs *VaultService) RestoreVersionToDirectory(ctx context.Context, userID string, fileID uint, versionNumber int) (*types.RestoreVersionResponse, error) {
	db := vs.dbClient.WithContext(ctx)

	if _, err := userFileFor(db, userID, fileID, false); err != nil {
		return nil, err
	}

	file, err := loadFile(db, fileID)
	if err != nil {
		return nil, err
	}

	version, err := loadVersion(db, fileID, versionNumber)
	if err != nil {
		return nil, err
	}

	// 先落盘
	src, err := vs.uploader.Download(ctx, version.S3Key, version.S3VersionID)
	if err != nil {
		return nil, fmt.Errorf("download version %d of file %d: %w", versionNumber, fileID, err)
	}
	defer src.Close()

	if err := writeToDisk(file.FilePath, src); err != nil {
		return nil, err
	}

	// 再移动指针
	err = db.Transaction(func(tx *gorm.DB) error {
		return activateUserFile(tx, userID, fileID, version.VersionID)
	})
	if err != nil {
		return nil, err
	}

	vs.publishVersionEvent(ctx, queue.TopicVersionRestored, userID, file, version)

	return &types.RestoreVersionResponse{
		FileID:        fileID,
		VersionNumber: versionNumber,
		TargetPath:    file.FilePath,
		Success:       true,
	}, nil
}

// DeleteFileVersion 逻辑删除指定版本. 物理行与对象存储负载都保留.
// 已删除或不存在的版本报"未找到或已删除".
func (vs *VaultService) DeleteFileVersion(ctx context.Context, userID string, fileID uint, versionNumber int) (*types.DeleteVersionResponse, error) {
	db := vs.dbClient.WithContext(ctx)

	// 用户须持有该文件的激活行
	if _, err := userFileFor(db, userID, fileID, true); err != nil {
		return nil, err
	}

	var file *model.File
	var version *model.Version

	err := db.Transaction(func(tx *gorm.DB) error {
		var terr error

		file, terr = loadFile(tx, fileID)
		if terr != nil {
			return terr
		}

		version, terr = loadVersion(tx, fileID, versionNumber)
		if terr != nil {
			return terr
		}

		if terr = tx.Model(version).Update("is_deleted", true).Error; terr != nil {
			return fmt.Errorf("delete version %d of file %d: %w", versionNumber, fileID, terr)
		}

		// 维持不变式：latest_version 等于未删除版本中的最大 version_number
		if file.LatestVersion == versionNumber {
			var highest int

			row := tx.Model(&model.Version{}).
				Select("COALESCE(MAX(version_number), 0)").
				Where("file_id = ? AND is_deleted = ?", fileID, false).
				Scan(&highest)
			if row.Error != nil {
				return fmt.Errorf("recompute latest_version for file %d: %w", fileID, row.Error)
			}

			if terr = tx.Model(file).Update("latest_version", highest).Error; terr != nil {
				return fmt.Errorf("update latest_version for file %d: %w", fileID, terr)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	vs.publishVersionEvent(ctx, queue.TopicVersionDeleted, userID, file, version)

	return &types.DeleteVersionResponse{FileID: fileID, VersionNumber: versionNumber, Success: true}, nil
}

// userFileFor 查询用户对文件的持有行. activeOnly 为 true 时只认激活行.
// 没有任何持有关系时报"未找到"，不泄露文件是否存在.
func userFileFor(db *gorm.DB, userID string, fileID uint, activeOnly bool) (*model.UserFile, error) {
	q := db.Where("user_id = ? AND file_id = ? AND is_deleted = ?", userID, fileID, false)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var uf model.UserFile

	err := q.Order("user_file_id DESC").First(&uf).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: file %d", ErrNotFound, fileID)
		}

		return nil, fmt.Errorf("query user file %d: %w", fileID, err)
	}

	return &uf, nil
}

// loadFile 加载未删除的文件行.
func loadFile(db *gorm.DB, fileID uint) (*model.File, error) {
	var file model.File

	err := db.Where("file_id = ? AND is_deleted = ?", fileID, false).First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: file %d", ErrNotFound, fileID)
		}

		return nil, fmt.Errorf("query file %d: %w", fileID, err)
	}

	return &file, nil
}

// loadVersion 加载未删除的版本行.
func loadVersion(db *gorm.DB, fileID uint, versionNumber int) (*model.Version, error) {
	if versionNumber < 1 {
		return nil, fmt.Errorf("%w: version number %d", ErrInvalidInput, versionNumber)
	}

	var version model.Version

	err := db.Where("file_id = ? AND version_number = ? AND is_deleted = ?",
		fileID, versionNumber, false).First(&version).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: version %d of file %d not found or already deleted",
				ErrNotFound, versionNumber, fileID)
		}

		return nil, fmt.Errorf("query version %d of file %d: %w", versionNumber, fileID, err)
	}

	return &version, nil
}

// writeToDisk 将字节流写到目标路径，按需补齐中间目录.
func writeToDisk(path string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directories for %s: %w", path, err)
	}

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := dst.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	return nil
}

// publishVersionEvent 发布版本事件，失败只记日志，不影响主流程.
func (vs *VaultService) publishVersionEvent(ctx context.Context, topic, userID string, file *model.File, version *model.Version) {
	if vs.mqClient == nil || !vs.eventsEnabled(topic) {
		return
	}

	ref := queue.VersionRef{
		FileID:        file.FileID,
		VersionID:     version.VersionID,
		VersionNumber: version.VersionNumber,
		Checksum:      version.Checksum,
		StorageKey:    version.S3Key,
		SizeInBytes:   version.SizeInBytes,
	}

	var (
		msgErr error
	)

	switch topic {
	case queue.TopicVersionRestored:
		msg, err := queue.NewWatermillMessage(topic, queue.VersionRestoredPayload{
			UserID: userID, Version: ref, TargetPath: file.FilePath,
		}, queue.WithHeader(queue.WithProducer("filevault")))
		if err == nil {
			msgErr = vs.mqClient.Publish(ctx, topic, msg)
		} else {
			msgErr = err
		}
	case queue.TopicVersionDeleted:
		msg, err := queue.NewWatermillMessage(topic, queue.VersionDeletedPayload{
			UserID: userID, Version: ref,
		}, queue.WithHeader(queue.WithProducer("filevault")))
		if err == nil {
			msgErr = vs.mqClient.Publish(ctx, topic, msg)
		} else {
			msgErr = err
		}
	}

	if msgErr != nil {
		nlog.Logger().Warn().Err(msgErr).Str("topic", topic).Msg("publish version event failed")
	}
}
