package service

import (
	"context"
	"errors"
	"testing"

	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/queue"
)

const testUser = "alice@example.com"

func newCheckInJob(base *model.Folder, folders, files []string) *queue.CheckInRequestedPayload {
	return &queue.CheckInRequestedPayload{
		JobID:              "01TESTJOB",
		UserID:             testUser,
		WorkingDirectoryID: base.FolderID,
		Folders:            folders,
		Files:              files,
	}
}

func TestCheckInNewFile(t *testing.T) {
	vs, up := newTestService(t)
	root := t.TempDir()
	base := seedWorkingDirectory(t, vs, testUser, root)
	writeTestFile(t, root, "a.txt", "content-X")

	results, err := vs.CheckIn(context.Background(), newCheckInJob(base, nil, []string{"a.txt"}))
	if err != nil {
		t.Fatalf("check in: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}

	r := results[0]
	if r.VersionNumber != 1 {
		t.Fatalf("version = %d, want 1", r.VersionNumber)
	}

	if up.uploads != 1 {
		t.Fatalf("uploads = %d, want 1", up.uploads)
	}

	if n := countRows(t, vs, &model.Version{}, "file_id = ?", r.FileID); n != 1 {
		t.Fatalf("version rows = %d, want 1", n)
	}

	// 激活指针恰好一行
	if n := countRows(t, vs, &model.UserFile{},
		"user_id = ? AND file_id = ? AND is_active = ? AND is_deleted = ?",
		testUser, r.FileID, true, false); n != 1 {
		t.Fatalf("active user_file rows = %d, want 1", n)
	}
}

func TestCheckInUnchangedDedup(t *testing.T) {
	vs, up := newTestService(t)
	root := t.TempDir()
	base := seedWorkingDirectory(t, vs, testUser, root)
	writeTestFile(t, root, "a.txt", "content-X")

	if _, err := vs.CheckIn(context.Background(), newCheckInJob(base, nil, []string{"a.txt"})); err != nil {
		t.Fatalf("first check in: %v", err)
	}

	// 内容未变：不产生新版本、不上传
	results, err := vs.CheckIn(context.Background(), newCheckInJob(base, nil, []string{"a.txt"}))
	if err != nil {
		t.Fatalf("second check in: %v", err)
	}

	if len(results) != 0 {
		t.Fatalf("results = %d, want 0", len(results))
	}

	if up.uploads != 1 {
		t.Fatalf("uploads = %d, want 1 (dedup must skip upload)", up.uploads)
	}

	if n := countRows(t, vs, &model.Version{}, "1 = 1"); n != 1 {
		t.Fatalf("version rows = %d, want 1", n)
	}
}

func TestCheckInContentChangeBumpsVersion(t *testing.T) {
	vs, up := newTestService(t)
	root := t.TempDir()
	base := seedWorkingDirectory(t, vs, testUser, root)
	writeTestFile(t, root, "a.txt", "content-X")

	first, err := vs.CheckIn(context.Background(), newCheckInJob(base, nil, []string{"a.txt"}))
	if err != nil {
		t.Fatalf("first check in: %v", err)
	}

	writeTestFile(t, root, "a.txt", "content-Y")

	second, err := vs.CheckIn(context.Background(), newCheckInJob(base, nil, []string{"a.txt"}))
	if err != nil {
		t.Fatalf("second check in: %v", err)
	}

	if len(second) != 1 || second[0].VersionNumber != 2 {
		t.Fatalf("second results = %+v, want one v2", second)
	}

	if second[0].FileID != first[0].FileID {
		t.Fatal("content change must not create a new file row")
	}

	if up.uploads != 2 {
		t.Fatalf("uploads = %d, want 2", up.uploads)
	}

	var file model.File
	if err := vs.dbClient.First(&file, "file_id = ?", first[0].FileID).Error; err != nil {
		t.Fatalf("load file: %v", err)
	}

	if file.LatestVersion != 2 {
		t.Fatalf("latest_version = %d, want 2", file.LatestVersion)
	}

	// 移动指针后仍然恰好一行激活
	if n := countRows(t, vs, &model.UserFile{},
		"user_id = ? AND file_id = ? AND is_active = ? AND is_deleted = ?",
		testUser, file.FileID, true, false); n != 1 {
		t.Fatalf("active user_file rows = %d, want 1", n)
	}
}

func TestCheckInFolderExpansion(t *testing.T) {
	vs, _ := newTestService(t)
	root := t.TempDir()
	base := seedWorkingDirectory(t, vs, testUser, root)
	writeTestFile(t, root, "docs/a.txt", "aaa")
	writeTestFile(t, root, "docs/sub/b.txt", "bbb")
	writeTestFile(t, root, "c.txt", "ccc")

	results, err := vs.CheckIn(context.Background(),
		newCheckInJob(base, []string{"docs"}, []string{"c.txt"}))
	if err != nil {
		t.Fatalf("check in: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}

	// docs 与 docs/sub 作为祖先被补齐
	if n := countRows(t, vs, &model.Folder{}, "is_working_directory = ?", false); n != 2 {
		t.Fatalf("ancestor folder rows = %d, want 2", n)
	}
}

func TestCheckInUploadFailureRollsBack(t *testing.T) {
	vs, up := newTestService(t)
	root := t.TempDir()
	base := seedWorkingDirectory(t, vs, testUser, root)
	writeTestFile(t, root, "a.txt", "content-X")

	up.failUpload = true

	if _, err := vs.CheckIn(context.Background(), newCheckInJob(base, nil, []string{"a.txt"})); err == nil {
		t.Fatal("expected upload failure to fail the job")
	}

	// 整体回滚：台账里不能留下半个版本
	if n := countRows(t, vs, &model.File{}, "1 = 1"); n != 0 {
		t.Fatalf("file rows after rollback = %d, want 0", n)
	}

	if n := countRows(t, vs, &model.Version{}, "1 = 1"); n != 0 {
		t.Fatalf("version rows after rollback = %d, want 0", n)
	}

	// 恢复上传后重新入库，版本号从 1 开始
	up.failUpload = false

	results, err := vs.CheckIn(context.Background(), newCheckInJob(base, nil, []string{"a.txt"}))
	if err != nil {
		t.Fatalf("retry check in: %v", err)
	}

	if len(results) != 1 || results[0].VersionNumber != 1 {
		t.Fatalf("retry results = %+v, want one v1", results)
	}
}

func TestCheckInMissingFolderFailsJob(t *testing.T) {
	vs, _ := newTestService(t)
	root := t.TempDir()
	base := seedWorkingDirectory(t, vs, testUser, root)

	_, err := vs.CheckIn(context.Background(), newCheckInJob(base, []string{"no-such-dir"}, nil))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCheckInUnknownWorkingDirectory(t *testing.T) {
	vs, _ := newTestService(t)

	job := &queue.CheckInRequestedPayload{
		JobID:              "01TESTJOB",
		UserID:             testUser,
		WorkingDirectoryID: 9999,
		Files:              []string{"a.txt"},
	}

	_, err := vs.CheckIn(context.Background(), job)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCheckInForeignWorkingDirectory(t *testing.T) {
	vs, _ := newTestService(t)
	root := t.TempDir()
	base := seedWorkingDirectory(t, vs, "bob@example.com", root)
	writeTestFile(t, root, "a.txt", "content-X")

	_, err := vs.CheckIn(context.Background(), newCheckInJob(base, nil, []string{"a.txt"}))
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}
