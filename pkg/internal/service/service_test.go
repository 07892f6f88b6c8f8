package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/storage/db"
)

// newTestDB 打开临时 sqlite 数据库并完成模型迁移.
func newTestDB(t *testing.T) *db.Client {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "vault.db")

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	client := &db.Client{DB: gdb}
	if err := client.Migrate(model.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return client
}

// newTestService 构造注入了桩上传器的服务实例. mqClient 留空，事件发布静默跳过.
func newTestService(t *testing.T) (*VaultService, *fakeUploader) {
	t.Helper()

	up := newFakeUploader()
	vs := &VaultService{
		dbClient: newTestDB(t),
		uploader: up,
	}

	return vs, up
}

// fakeUploader 记录上传内容的内存桩，可注入上传/下载失败.
type fakeUploader struct {
	objects      map[string][]byte
	uploads      int
	failUpload   bool
	failDownload bool
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string][]byte)}
}

func (f *fakeUploader) Upload(_ context.Context, key string, r io.Reader, _ int64) (string, error) {
	if f.failUpload {
		return "", fmt.Errorf("injected upload failure")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	f.objects[key] = data
	f.uploads++

	return fmt.Sprintf("tok-%d", f.uploads), nil
}

func (f *fakeUploader) Download(_ context.Context, key, _ string) (io.ReadCloser, error) {
	if f.failDownload {
		return nil, fmt.Errorf("injected download failure")
	}

	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// seedWorkingDirectory 直接落一行工作目录并返回.
func seedWorkingDirectory(t *testing.T, vs *VaultService, userID, path string) *model.Folder {
	t.Helper()

	folder := &model.Folder{
		UserID:             userID,
		FolderPath:         NormalizePath(path),
		PathHash:           HashPath(path),
		FolderName:         filepath.Base(path),
		IsWorkingDirectory: true,
		IsActive:           true,
	}
	if err := vs.dbClient.Create(folder).Error; err != nil {
		t.Fatalf("seed working directory: %v", err)
	}

	return folder
}

// writeTestFile 在目录下写入文件，按需补齐子目录.
func writeTestFile(t *testing.T, dir, rel, content string) string {
	t.Helper()

	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", rel, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}

	return path
}

func countRows(t *testing.T, vs *VaultService, mdl any, query string, args ...any) int64 {
	t.Helper()

	var n int64
	if err := vs.dbClient.Model(mdl).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}

	return n
}
