package service

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"path/filepath"
	"time"

	"github.com/oklog/ulid"
	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/types"
	nlog "github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/queue"
	"github.com/yeisme/filevault/pkg/rule"
)

// SetWorkingDirectory 登记（或复用）一个工作目录根. 同一路径至多一行：
// 已存在时只补打工作目录标记，不重建.
func (vs *VaultService) SetWorkingDirectory(ctx context.Context, userID string, req *types.SetWorkingDirectoryRequest) (*types.FolderInfo, error) {
	if err := rule.ValidateVar(req.FolderPath, "required,abspath"); err != nil {
		return nil, fmt.Errorf("%w: folder path must be absolute", ErrInvalidInput)
	}

	path := NormalizePath(req.FolderPath)
	hash := HashPath(path)

	var folder *model.Folder
	created := false

	err := vs.dbClient.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findFolderByHash(tx, hash)
		if err != nil {
			return err
		}

		if existing != nil {
			if existing.UserID != userID {
				return fmt.Errorf("%w: folder %s", ErrForbidden, path)
			}

			if !existing.IsWorkingDirectory {
				if err := tx.Model(existing).Update("is_working_directory", true).Error; err != nil {
					return fmt.Errorf("mark working directory %s: %w", path, err)
				}

				existing.IsWorkingDirectory = true
			}

			folder = existing

			return nil
		}

		folder = &model.Folder{
			UserID:             userID,
			FolderPath:         path,
			PathHash:           hash,
			FolderName:         filepath.Base(path),
			IsWorkingDirectory: true,
			IsActive:           true,
		}
		if err := tx.Create(folder).Error; err != nil {
			return fmt.Errorf("create working directory %s: %w", path, err)
		}

		created = true

		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		vs.publishFolderCreated(ctx, userID, folder)
	}

	return folderInfo(folder), nil
}

// ListFolders 列出用户全部未删除的文件夹.
func (vs *VaultService) ListFolders(ctx context.Context, userID string) (*types.ListFoldersResponse, error) {
	var folders []model.Folder

	err := vs.dbClient.WithContext(ctx).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("folder_path ASC").Find(&folders).Error
	if err != nil {
		return nil, fmt.Errorf("list folders for %s: %w", userID, err)
	}

	infos := make([]types.FolderInfo, 0, len(folders))
	for i := range folders {
		infos = append(infos, *folderInfo(&folders[i]))
	}

	return &types.ListFoldersResponse{Folders: infos, Total: len(infos)}, nil
}

// SubmitCheckIn 受理入库请求：生成任务 ID，持久化入队后立即返回.
// 请求路径在这里不做任何文件系统访问，慢 I/O 全部留给 worker.
func (vs *VaultService) SubmitCheckIn(ctx context.Context, userID string, req *types.CheckInRequest) (*types.CheckInAcceptedResponse, error) {
	if len(req.Folders) == 0 && len(req.Files) == 0 {
		return nil, fmt.Errorf("%w: nothing to check in", ErrInvalidInput)
	}

	jobID, err := ulid.New(ulid.Timestamp(time.Now()), crand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate job id: %w", err)
	}

	payload := queue.CheckInRequestedPayload{
		JobID:              jobID.String(),
		UserID:             userID,
		WorkingDirectoryID: req.WorkingDirectoryID,
		Folders:            make([]string, 0, len(req.Folders)),
		Files:              make([]string, 0, len(req.Files)),
	}

	for _, f := range req.Folders {
		payload.Folders = append(payload.Folders, f.FolderPath)
	}

	for _, f := range req.Files {
		payload.Files = append(payload.Files, f.FilePath)
	}

	if vs.mqClient == nil {
		return nil, fmt.Errorf("mq client not initialized")
	}

	if err := queue.PublishCheckInRequested(vs.mqClient.Publisher(), payload,
		queue.WithProducer("filevault")); err != nil {
		return nil, fmt.Errorf("enqueue check-in job: %w", err)
	}

	nlog.Logger().Info().
		Str("job_id", payload.JobID).
		Str("user", userID).
		Int("folders", len(payload.Folders)).
		Int("files", len(payload.Files)).
		Msg("check-in job accepted")

	return &types.CheckInAcceptedResponse{JobID: payload.JobID, Status: "accepted"}, nil
}

// publishFolderCreated 发布文件夹创建事件，失败只记日志.
func (vs *VaultService) publishFolderCreated(ctx context.Context, userID string, folder *model.Folder) {
	if vs.mqClient == nil || !vs.eventsEnabled(queue.TopicFolderCreated) {
		return
	}

	msg, err := queue.NewWatermillMessage(queue.TopicFolderCreated, queue.FolderCreatedPayload{
		UserID:     userID,
		FolderID:   folder.FolderID,
		FolderPath: folder.FolderPath,
		PathHash:   folder.PathHash,
	}, queue.WithHeader(queue.WithProducer("filevault")))
	if err == nil {
		err = vs.mqClient.Publish(ctx, queue.TopicFolderCreated, msg)
	}

	if err != nil {
		nlog.Logger().Warn().Err(err).Msg("publish folder created event failed")
	}
}

// folderInfo 转换为对外摘要.
func folderInfo(f *model.Folder) *types.FolderInfo {
	return &types.FolderInfo{
		FolderID:           f.FolderID,
		FolderPath:         f.FolderPath,
		FolderName:         f.FolderName,
		ParentFolderID:     f.ParentFolderID,
		IsWorkingDirectory: f.IsWorkingDirectory,
		CreatedAt:          f.CreatedAt.UTC().Format(time.RFC3339),
	}
}
