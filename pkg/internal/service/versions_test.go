package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yeisme/filevault/pkg/internal/model"
)

// checkInTwice 入库 v1("content-X") 与 v2("content-Y")，返回文件 ID 与磁盘路径.
func checkInTwice(t *testing.T, vs *VaultService, base *model.Folder, root string) (uint, string) {
	t.Helper()

	path := writeTestFile(t, root, "a.txt", "content-X")

	if _, err := vs.CheckIn(context.Background(), newCheckInJob(base, nil, []string{"a.txt"})); err != nil {
		t.Fatalf("check in v1: %v", err)
	}

	writeTestFile(t, root, "a.txt", "content-Y")

	results, err := vs.CheckIn(context.Background(), newCheckInJob(base, nil, []string{"a.txt"}))
	if err != nil {
		t.Fatalf("check in v2: %v", err)
	}

	if len(results) != 1 || results[0].VersionNumber != 2 {
		t.Fatalf("unexpected v2 results %+v", results)
	}

	return results[0].FileID, path
}

func TestListFiles(t *testing.T) {
	vs, _ := newTestService(t)
	root := t.TempDir()
	base := seedWorkingDirectory(t, vs, testUser, root)
	fileID, _ := checkInTwice(t, vs, base, root)

	resp, err := vs.ListFiles(context.Background(), testUser)
	if err != nil {
		t.Fatalf("list files: %v", err)
	}

	if resp.Total != 1 || len(resp.Files) != 1 {
		t.Fatalf("total = %d, want 1", resp.Total)
	}

	f := resp.Files[0]
	if f.FileID != fileID || f.FileName != "a.txt" {
		t.Fatalf("unexpected file %+v", f)
	}

	if f.ActiveVersionNumber != 2 || f.LatestVersion != 2 {
		t.Fatalf("active = %d latest = %d, want 2/2", f.ActiveVersionNumber, f.LatestVersion)
	}

	// 其他用户看不到
	other, err := vs.ListFiles(context.Background(), "bob@example.com")
	if err != nil {
		t.Fatalf("list files for other user: %v", err)
	}

	if other.Total != 0 {
		t.Fatalf("other user total = %d, want 0", other.Total)
	}
}

func TestListFileVersions(t *testing.T) {
	vs, _ := newTestService(t)
	root := t.TempDir()
	base := seedWorkingDirectory(t, vs, testUser, root)
	fileID, _ := checkInTwice(t, vs, base, root)

	resp, err := vs.ListFileVersions(context.Background(), testUser, fileID)
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}

	if resp.Total != 2 {
		t.Fatalf("total = %d, want 2", resp.Total)
	}

	if resp.Versions[0].VersionNumber != 1 || resp.Versions[1].VersionNumber != 2 {
		t.Fatalf("version order = %+v", resp.Versions)
	}

	if resp.Versions[0].IsActive || !resp.Versions[1].IsActive {
		t.Fatal("only v2 should be marked active")
	}

	// 无持有关系的用户报未找到
	if _, err := vs.ListFileVersions(context.Background(), "bob@example.com", fileID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetLatestVersion(t *testing.T) {
	vs, _ := newTestService(t)
	root := t.TempDir()
	base := seedWorkingDirectory(t, vs, testUser, root)
	fileID, _ := checkInTwice(t, vs, base, root)

	resp, err := vs.GetLatestVersion(context.Background(), testUser, fileID)
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}

	if resp.VersionNumber != 2 {
		t.Fatalf("latest version = %d, want 2", resp.VersionNumber)
	}

	if resp.StorageKey == "" || resp.URL == "" {
		t.Fatalf("missing storage key or url: %+v", resp)
	}
}

func TestRestoreVersionToDirectory(t *testing.T) {
	vs, _ := newTestService(t)
	root := t.TempDir()
	base := seedWorkingDirectory(t, vs, testUser, root)
	fileID, path := checkInTwice(t, vs, base, root)

	resp, err := vs.RestoreVersionToDirectory(context.Background(), testUser, fileID, 1)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	if !resp.Success || resp.TargetPath != NormalizePath(path) {
		t.Fatalf("unexpected response %+v", resp)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read restored file: %v", err)
	}

	if string(data) != "content-X" {
		t.Fatalf("restored content = %q, want v1 bytes", data)
	}

	// 指针指向 v1，latest_version 不动：恢复不是新版本
	versions, err := vs.ListFileVersions(context.Background(), testUser, fileID)
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}

	if !versions.Versions[0].IsActive || versions.Versions[1].IsActive {
		t.Fatal("active pointer should be on v1 after restore")
	}

	var file model.File
	if err := vs.dbClient.First(&file, "file_id = ?", fileID).Error; err != nil {
		t.Fatalf("load file: %v", err)
	}

	if file.LatestVersion != 2 {
		t.Fatalf("latest_version = %d, restore must not change it", file.LatestVersion)
	}
}

func TestRestoreDownloadFailureKeepsPointer(t *testing.T) {
	vs, up := newTestService(t)
	root := t.TempDir()
	base := seedWorkingDirectory(t, vs, testUser, root)
	fileID, path := checkInTwice(t, vs, base, root)

	up.failDownload = true

	if _, err := vs.RestoreVersionToDirectory(context.Background(), testUser, fileID, 1); err == nil {
		t.Fatal("expected download failure")
	}

	// 落盘失败：指针不得移动，磁盘内容不得破坏
	versions, err := vs.ListFileVersions(context.Background(), testUser, fileID)
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}

	if versions.Versions[0].IsActive || !versions.Versions[1].IsActive {
		t.Fatal("active pointer must stay on v2 after failed restore")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}

	if string(data) != "content-Y" {
		t.Fatalf("disk content = %q, must stay v2 bytes", data)
	}
}

func TestRestoreMissingVersion(t *testing.T) {
	vs, _ := newTestService(t)
	root := t.TempDir()
	base := seedWorkingDirectory(t, vs, testUser, root)
	fileID, _ := checkInTwice(t, vs, base, root)

	if _, err := vs.RestoreVersionToDirectory(context.Background(), testUser, fileID, 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	if _, err := vs.RestoreVersionToDirectory(context.Background(), testUser, fileID, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestDeleteFileVersion(t *testing.T) {
	vs, _ := newTestService(t)
	root := t.TempDir()
	base := seedWorkingDirectory(t, vs, testUser, root)
	fileID, _ := checkInTwice(t, vs, base, root)

	resp, err := vs.DeleteFileVersion(context.Background(), testUser, fileID, 1)
	if err != nil {
		t.Fatalf("delete v1: %v", err)
	}

	if !resp.Success {
		t.Fatalf("unexpected response %+v", resp)
	}

	// 逻辑删除：物理行保留
	if n := countRows(t, vs, &model.Version{}, "file_id = ?", fileID); n != 2 {
		t.Fatalf("physical version rows = %d, want 2", n)
	}

	versions, err := vs.ListFileVersions(context.Background(), testUser, fileID)
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}

	if versions.Total != 1 || versions.Versions[0].VersionNumber != 2 {
		t.Fatalf("visible versions = %+v", versions.Versions)
	}

	// 删除同一版本第二次报未找到
	if _, err := vs.DeleteFileVersion(context.Background(), testUser, fileID, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete err = %v, want ErrNotFound", err)
	}
}

func TestDeleteLatestVersionRecomputes(t *testing.T) {
	vs, _ := newTestService(t)
	root := t.TempDir()
	base := seedWorkingDirectory(t, vs, testUser, root)
	fileID, _ := checkInTwice(t, vs, base, root)

	if _, err := vs.DeleteFileVersion(context.Background(), testUser, fileID, 2); err != nil {
		t.Fatalf("delete v2: %v", err)
	}

	// 不变式：latest_version 回落到未删除版本中的最大号
	var file model.File
	if err := vs.dbClient.First(&file, "file_id = ?", fileID).Error; err != nil {
		t.Fatalf("load file: %v", err)
	}

	if file.LatestVersion != 1 {
		t.Fatalf("latest_version = %d, want 1", file.LatestVersion)
	}

	latest, err := vs.GetLatestVersion(context.Background(), testUser, fileID)
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}

	if latest.VersionNumber != 1 {
		t.Fatalf("latest after delete = %d, want 1", latest.VersionNumber)
	}
}

func TestCheckInAfterDeletingLatestSkipsNumber(t *testing.T) {
	vs, _ := newTestService(t)
	root := t.TempDir()
	base := seedWorkingDirectory(t, vs, testUser, root)
	fileID, _ := checkInTwice(t, vs, base, root)

	if _, err := vs.DeleteFileVersion(context.Background(), testUser, fileID, 2); err != nil {
		t.Fatalf("delete v2: %v", err)
	}

	// 已删除的 v2 保留版本号，新版本必须越过它拿 3
	writeTestFile(t, root, "a.txt", "content-Z")

	results, err := vs.CheckIn(context.Background(), newCheckInJob(base, nil, []string{"a.txt"}))
	if err != nil {
		t.Fatalf("check in after delete: %v", err)
	}

	if len(results) != 1 || results[0].VersionNumber != 3 {
		t.Fatalf("results = %+v, want one v3", results)
	}

	var file model.File
	if err := vs.dbClient.First(&file, "file_id = ?", fileID).Error; err != nil {
		t.Fatalf("load file: %v", err)
	}

	if file.LatestVersion != 3 {
		t.Fatalf("latest_version = %d, want 3", file.LatestVersion)
	}
}

func TestWriteToDiskCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "deep", "nested", "a.txt")

	if err := writeToDisk(target, strings.NewReader("payload")); err != nil {
		t.Fatalf("write to disk: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	if string(data) != "payload" {
		t.Fatalf("content = %q", data)
	}
}
