package service

import (
	"context"
	"errors"
	"testing"

	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/types"
)

func TestSetWorkingDirectory(t *testing.T) {
	vs, _ := newTestService(t)

	info, err := vs.SetWorkingDirectory(context.Background(), testUser,
		&types.SetWorkingDirectoryRequest{FolderPath: "/vault"})
	if err != nil {
		t.Fatalf("set working directory: %v", err)
	}

	if !info.IsWorkingDirectory || info.FolderPath != "/vault" || info.FolderName != "vault" {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestSetWorkingDirectoryIdempotent(t *testing.T) {
	vs, _ := newTestService(t)

	first, err := vs.SetWorkingDirectory(context.Background(), testUser,
		&types.SetWorkingDirectoryRequest{FolderPath: "/vault"})
	if err != nil {
		t.Fatalf("first call: %v", err)
	}

	// 同一路径的不同写法必须复用同一行
	second, err := vs.SetWorkingDirectory(context.Background(), testUser,
		&types.SetWorkingDirectoryRequest{FolderPath: "/vault/"})
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if first.FolderID != second.FolderID {
		t.Fatalf("folder ids differ: %d vs %d", first.FolderID, second.FolderID)
	}

	if n := countRows(t, vs, &model.Folder{}, "folder_path = ?", "/vault"); n != 1 {
		t.Fatalf("folder rows = %d, want 1", n)
	}
}

func TestSetWorkingDirectoryPromotesExisting(t *testing.T) {
	vs, _ := newTestService(t)

	// 先作为普通文件夹存在（入库过程中补齐的祖先）
	base := seedWorkingDirectory(t, vs, testUser, "/vault")
	if _, err := resolveFolder(vs.dbClient.DB, testUser, base, "/vault/docs"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	info, err := vs.SetWorkingDirectory(context.Background(), testUser,
		&types.SetWorkingDirectoryRequest{FolderPath: "/vault/docs"})
	if err != nil {
		t.Fatalf("promote: %v", err)
	}

	if !info.IsWorkingDirectory {
		t.Fatal("existing folder should be promoted to working directory")
	}

	if n := countRows(t, vs, &model.Folder{}, "folder_path = ?", "/vault/docs"); n != 1 {
		t.Fatalf("folder rows = %d, want 1", n)
	}
}

func TestSetWorkingDirectoryForeignPath(t *testing.T) {
	vs, _ := newTestService(t)

	if _, err := vs.SetWorkingDirectory(context.Background(), "bob@example.com",
		&types.SetWorkingDirectoryRequest{FolderPath: "/vault"}); err != nil {
		t.Fatalf("bob registers: %v", err)
	}

	_, err := vs.SetWorkingDirectory(context.Background(), testUser,
		&types.SetWorkingDirectoryRequest{FolderPath: "/vault"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestSetWorkingDirectoryRelativePath(t *testing.T) {
	vs, _ := newTestService(t)

	_, err := vs.SetWorkingDirectory(context.Background(), testUser,
		&types.SetWorkingDirectoryRequest{FolderPath: "vault/docs"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestListFolders(t *testing.T) {
	vs, _ := newTestService(t)

	for _, p := range []string{"/vault", "/archive"} {
		if _, err := vs.SetWorkingDirectory(context.Background(), testUser,
			&types.SetWorkingDirectoryRequest{FolderPath: p}); err != nil {
			t.Fatalf("register %s: %v", p, err)
		}
	}

	resp, err := vs.ListFolders(context.Background(), testUser)
	if err != nil {
		t.Fatalf("list folders: %v", err)
	}

	if resp.Total != 2 {
		t.Fatalf("total = %d, want 2", resp.Total)
	}

	// 按路径升序
	if resp.Folders[0].FolderPath != "/archive" || resp.Folders[1].FolderPath != "/vault" {
		t.Fatalf("unexpected order %+v", resp.Folders)
	}
}

func TestSubmitCheckInValidation(t *testing.T) {
	vs, _ := newTestService(t)

	_, err := vs.SubmitCheckIn(context.Background(), testUser, &types.CheckInRequest{WorkingDirectoryID: 1})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
