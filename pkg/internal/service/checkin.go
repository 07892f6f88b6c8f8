package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/internal/model"
	nlog "github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/queue"
)

// CheckIn 执行一次入库任务：展开目录、计算校验和、去重、上传变更内容并落账.
// 整个任务包在一个数据库事务里，任何一步失败整体回滚——不会留下半个版本，
// 也不会让激活指针偏离"恰好一行激活"的契约.
//
// 返回值只枚举产生了新版本的文件（新建或内容变更），未变更的文件不在其中.
func (vs *VaultService) CheckIn(ctx context.Context, job *queue.CheckInRequestedPayload) ([]queue.CheckInResult, error) {
	var results []queue.CheckInResult

	err := vs.dbClient.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 解析工作目录，校验归属
		base, err := loadWorkingDirectory(tx, job.UserID, job.WorkingDirectoryID)
		if err != nil {
			return err
		}

		// 2. 展开目录，合并显式文件列表，得到封闭的待处理集合
		paths, err := expandJobPaths(base.FolderPath, job.Folders, job.Files)
		if err != nil {
			return err
		}

		// 3-4. 逐个文件：校验和、去重判定、上传与落账
		for _, absPath := range paths {
			res, changed, err := vs.checkInFile(ctx, tx, job.UserID, base, absPath)
			if err != nil {
				return err
			}

			if changed {
				results = append(results, res)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	nlog.Logger().Info().
		Str("job_id", job.JobID).
		Str("user", job.UserID).
		Int("new_versions", len(results)).
		Msg("check-in committed")

	// 提交之后才对外广播，事务回滚不会泄漏事件
	for _, r := range results {
		vs.publishVersionCreated(ctx, job.UserID, r)
	}

	return results, nil
}

// publishVersionCreated 发布新版本事件，失败只记日志.
func (vs *VaultService) publishVersionCreated(ctx context.Context, userID string, r queue.CheckInResult) {
	if vs.mqClient == nil || !vs.eventsEnabled(queue.TopicVersionCreated) {
		return
	}

	msg, err := queue.NewWatermillMessage(queue.TopicVersionCreated, queue.VersionCreatedPayload{
		UserID: userID,
		Version: queue.VersionRef{
			FileID:        r.FileID,
			VersionNumber: r.VersionNumber,
			Checksum:      r.Checksum,
			StorageKey:    r.StorageKey,
			SizeInBytes:   r.SizeInBytes,
		},
	}, queue.WithHeader(queue.WithProducer("filevault")))
	if err == nil {
		err = vs.mqClient.Publish(ctx, queue.TopicVersionCreated, msg)
	}

	if err != nil {
		nlog.Logger().Warn().Err(err).Str("topic", queue.TopicVersionCreated).Msg("publish version event failed")
	}
}

// loadWorkingDirectory 加载并校验工作目录：必须存在、激活、未删除且属于该用户.
func loadWorkingDirectory(tx *gorm.DB, userID string, folderID uint) (*model.Folder, error) {
	var folder model.Folder

	err := tx.Where("folder_id = ? AND is_working_directory = ?", folderID, true).First(&folder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: working directory %d", ErrNotFound, folderID)
		}

		return nil, fmt.Errorf("query working directory: %w", err)
	}

	if folder.IsDeleted || !folder.IsActive {
		return nil, fmt.Errorf("%w: working directory %d inactive", ErrNotFound, folderID)
	}

	if folder.UserID != userID {
		return nil, fmt.Errorf("%w: working directory %d", ErrForbidden, folderID)
	}

	return &folder, nil
}

// expandJobPaths 将请求中的目录递归展开为文件列表，与显式文件合并去重后
// 返回规范化绝对路径. 磁盘上不存在的目录让整个任务失败——后续步骤假定
// 文件集合是封闭且已验证的，部分展开不可接受.
func expandJobPaths(basePath string, folders, files []string) ([]string, error) {
	base := NormalizePath(basePath)
	seen := make(map[string]struct{})

	var paths []string

	add := func(abs string) {
		abs = NormalizePath(abs)
		if _, ok := seen[abs]; ok {
			return
		}

		seen[abs] = struct{}{}
		paths = append(paths, abs)
	}

	for _, dir := range folders {
		root := filepath.Join(base, dir)

		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("%w: folder %s: %v", ErrNotFound, dir, err)
		}

		if !info.IsDir() {
			return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidInput, dir)
		}

		walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if !d.IsDir() {
				add(p)
			}

			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("walk folder %s: %w", dir, walkErr)
		}
	}

	for _, f := range files {
		add(filepath.Join(base, f))
	}

	return paths, nil
}

// checkInFile 处理单个文件. changed 为 false 表示命中去重快路径：
// 内容与 latest_version 的校验和一致，不产生新版本、不上传、不动激活指针.
func (vs *VaultService) checkInFile(ctx context.Context, tx *gorm.DB, userID string,
	base *model.Folder, absPath string,
) (queue.CheckInResult, bool, error) {
	var zero queue.CheckInResult

	checksum, size, err := HashFile(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return zero, false, fmt.Errorf("%w: file %s", ErrNotFound, absPath)
		}

		return zero, false, err
	}

	pathHash := HashPath(absPath)
	fileName := filepath.Base(absPath)

	file, err := findFileByHashAndName(tx, pathHash, fileName)
	if err != nil {
		return zero, false, err
	}

	versionNumber := 1

	if file != nil {
		// 去重快路径必须发生在任何上传之前，上传是要避免的昂贵步骤
		same, err := checksumMatchesLatest(tx, file, checksum)
		if err != nil {
			return zero, false, err
		}

		if same {
			return zero, false, nil
		}

		// 逻辑删除的版本行保留其版本号，编号必须越过它们继续，
		// 否则会撞上 (file_id, version_number) 唯一索引
		var highest int

		row := tx.Model(&model.Version{}).
			Select("COALESCE(MAX(version_number), 0)").
			Where("file_id = ?", file.FileID).
			Scan(&highest)
		if row.Error != nil {
			return zero, false, fmt.Errorf("next version number for file %d: %w", file.FileID, row.Error)
		}

		versionNumber = highest + 1
	}

	// 解析所属文件夹，补齐缺失祖先
	folderID, err := resolveFolder(tx, userID, base, filepath.Dir(absPath))
	if err != nil {
		return zero, false, err
	}

	if file == nil {
		file = &model.File{
			FileName:      fileName,
			FolderID:      folderID,
			PathHash:      pathHash,
			FilePath:      NormalizePath(absPath),
			LatestVersion: versionNumber,
			IsActive:      true,
		}
		if err := tx.Create(file).Error; err != nil {
			return zero, false, fmt.Errorf("create file %s: %w", fileName, err)
		}
	} else {
		if err := tx.Model(file).Update("latest_version", versionNumber).Error; err != nil {
			return zero, false, fmt.Errorf("bump latest_version for file %d: %w", file.FileID, err)
		}

		file.LatestVersion = versionNumber
	}

	// 上传变更内容；失败则整个事务回滚，台账里不会出现孤儿版本行
	objectKey := buildObjectKey(userID, pathHash, fileName, versionNumber)

	src, err := os.Open(absPath)
	if err != nil {
		return zero, false, fmt.Errorf("open %s: %w", absPath, err)
	}
	defer src.Close()

	versionToken, err := vs.uploader.Upload(ctx, objectKey, src, size)
	if err != nil {
		return zero, false, fmt.Errorf("upload %s: %w", objectKey, err)
	}

	version := model.Version{
		FileID:        file.FileID,
		VersionNumber: versionNumber,
		SizeInBytes:   size,
		Checksum:      checksum,
		S3Key:         objectKey,
		S3VersionID:   versionToken,
	}
	if err := tx.Create(&version).Error; err != nil {
		return zero, false, fmt.Errorf("create version %d for file %d: %w", versionNumber, file.FileID, err)
	}

	if err := activateUserFile(tx, userID, file.FileID, version.VersionID); err != nil {
		return zero, false, err
	}

	return queue.CheckInResult{
		FileID:        file.FileID,
		Path:          NormalizePath(absPath),
		StorageKey:    objectKey,
		SizeInBytes:   size,
		Checksum:      checksum,
		VersionNumber: versionNumber,
	}, true, nil
}

// findFileByHashAndName 按 (路径哈希, 文件名) 定位文件行，未找到返回 nil.
func findFileByHashAndName(tx *gorm.DB, pathHash, fileName string) (*model.File, error) {
	var file model.File

	err := tx.Where("path_hash = ? AND file_name = ? AND is_deleted = ?", pathHash, fileName, false).
		First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("query file by hash and name: %w", err)
	}

	return &file, nil
}

// checksumMatchesLatest 判断校验和是否与 latest_version 对应版本一致.
func checksumMatchesLatest(tx *gorm.DB, file *model.File, checksum string) (bool, error) {
	var latest model.Version

	err := tx.Where("file_id = ? AND version_number = ? AND is_deleted = ?",
		file.FileID, file.LatestVersion, false).First(&latest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 台账里还没有该版本行（首版上轮被回滚等），按内容已变更处理
			return false, nil
		}

		return false, fmt.Errorf("query latest version of file %d: %w", file.FileID, err)
	}

	return latest.Checksum == checksum, nil
}

// activateUserFile 移动激活指针：先停用该 (user, file) 的全部旧行，
// 再插入指向新版本的激活行. 两步同在任务事务内，契约不会在中间态暴露.
func activateUserFile(tx *gorm.DB, userID string, fileID, versionID uint) error {
	err := tx.Model(&model.UserFile{}).
		Where("user_id = ? AND file_id = ? AND is_deleted = ?", userID, fileID, false).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("deactivate user files for file %d: %w", fileID, err)
	}

	userFile := model.UserFile{
		UserID:    userID,
		FileID:    fileID,
		VersionID: versionID,
		IsActive:  true,
	}
	if err := tx.Create(&userFile).Error; err != nil {
		return fmt.Errorf("activate user file for file %d: %w", fileID, err)
	}

	return nil
}
