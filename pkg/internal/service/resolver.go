package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/internal/model"
)

// resolveFolder 将工作目录下的目录路径映射为 folder_id，逐段补齐缺失的祖先文件夹.
//
// 算法：先按整条路径的哈希短路查询（目录树已知是常态）；未命中时从工作目录根
// 开始逐段前进，每段重建中间绝对路径并在插入前复查存在性，防御其他任务的并发创建.
// 返回最深一级（目标目录）的 folder_id.
func resolveFolder(tx *gorm.DB, userID string, base *model.Folder, dirPath string) (uint, error) {
	dir := NormalizePath(dirPath)
	basePath := NormalizePath(base.FolderPath)

	if dir == basePath {
		return base.FolderID, nil
	}

	// 短路：目标目录已存在
	if f, err := findFolderByHash(tx, HashPath(dir)); err != nil {
		return 0, err
	} else if f != nil {
		return f.FolderID, nil
	}

	if !strings.HasPrefix(dir, basePath+"/") {
		return 0, fmt.Errorf("%w: path %s outside working directory %s", ErrInvalidInput, dir, basePath)
	}

	segments := strings.Split(strings.TrimPrefix(dir, basePath+"/"), "/")

	current := basePath
	parentID := base.FolderID

	for _, seg := range segments {
		if seg == "" {
			continue
		}

		current = current + "/" + seg
		hash := HashPath(current)

		// 插入前复查，防并发创建
		existing, err := findFolderByHash(tx, hash)
		if err != nil {
			return 0, err
		}

		if existing != nil {
			parentID = existing.FolderID
			continue
		}

		pid := parentID
		folder := model.Folder{
			UserID:         userID,
			FolderPath:     current,
			PathHash:       hash,
			ParentFolderID: &pid,
			FolderName:     seg,
			IsActive:       true,
		}

		if err := tx.Create(&folder).Error; err != nil {
			// 唯一索引冲突说明另一任务刚创建了同一路径，重查后继续；
			// 复查仍找不到才是真正的约束错误，对整个任务是致命的
			again, qerr := findFolderByHash(tx, hash)
			if qerr != nil || again == nil {
				return 0, fmt.Errorf("create folder %s: %w", current, err)
			}

			parentID = again.FolderID

			continue
		}

		parentID = folder.FolderID
	}

	return parentID, nil
}

// findFolderByHash 按路径哈希查询未删除的文件夹，未找到返回 nil.
func findFolderByHash(tx *gorm.DB, hash string) (*model.Folder, error) {
	var folder model.Folder

	err := tx.Where("path_hash = ? AND is_deleted = ?", hash, false).First(&folder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("query folder by hash: %w", err)
	}

	return &folder, nil
}
