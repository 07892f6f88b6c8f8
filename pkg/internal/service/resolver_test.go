package service

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/yeisme/filevault/pkg/internal/model"
)

func TestResolveFolderBase(t *testing.T) {
	vs, _ := newTestService(t)
	base := seedWorkingDirectory(t, vs, "alice@example.com", "/vault")

	id, err := resolveFolder(vs.dbClient.DB, "alice@example.com", base, "/vault")
	if err != nil {
		t.Fatalf("resolve base: %v", err)
	}

	if id != base.FolderID {
		t.Fatalf("folder id = %d, want base %d", id, base.FolderID)
	}
}

func TestResolveFolderCreatesAncestors(t *testing.T) {
	vs, _ := newTestService(t)
	base := seedWorkingDirectory(t, vs, "alice@example.com", "/vault")

	id, err := resolveFolder(vs.dbClient.DB, "alice@example.com", base, "/vault/docs/2026/q3")
	if err != nil {
		t.Fatalf("resolve nested: %v", err)
	}

	// /vault/docs、/vault/docs/2026、/vault/docs/2026/q3 各一行
	if n := countRows(t, vs, &model.Folder{}, "user_id = ?", "alice@example.com"); n != 4 {
		t.Fatalf("folder rows = %d, want 4", n)
	}

	var leaf model.Folder
	if err := vs.dbClient.First(&leaf, "folder_id = ?", id).Error; err != nil {
		t.Fatalf("load leaf: %v", err)
	}

	if leaf.FolderPath != "/vault/docs/2026/q3" || leaf.FolderName != "q3" {
		t.Fatalf("leaf = %+v", leaf)
	}

	if leaf.ParentFolderID == nil {
		t.Fatal("leaf must reference its parent")
	}

	var parent model.Folder
	if err := vs.dbClient.First(&parent, "folder_id = ?", *leaf.ParentFolderID).Error; err != nil {
		t.Fatalf("load parent: %v", err)
	}

	if parent.FolderPath != "/vault/docs/2026" {
		t.Fatalf("parent path = %s", parent.FolderPath)
	}
}

func TestResolveFolderIdempotent(t *testing.T) {
	vs, _ := newTestService(t)
	base := seedWorkingDirectory(t, vs, "alice@example.com", "/vault")

	first, err := resolveFolder(vs.dbClient.DB, "alice@example.com", base, "/vault/docs")
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	// 第二次解析必须复用同一行，不得因写法差异重建
	second, err := resolveFolder(vs.dbClient.DB, "alice@example.com", base, "/vault/docs/")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if first != second {
		t.Fatalf("resolve not idempotent: %d vs %d", first, second)
	}

	if n := countRows(t, vs, &model.Folder{}, "folder_path = ?", "/vault/docs"); n != 1 {
		t.Fatalf("duplicate folder rows: %d", n)
	}
}

func TestResolveFolderOutsideWorkingDirectory(t *testing.T) {
	vs, _ := newTestService(t)
	base := seedWorkingDirectory(t, vs, "alice@example.com", "/vault")

	_, err := resolveFolder(vs.dbClient.DB, "alice@example.com", base, "/etc/passwd")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestFindFolderByHashMissing(t *testing.T) {
	vs, _ := newTestService(t)

	folder, err := findFolderByHash(vs.dbClient.DB, HashPath(filepath.Join("/", "nowhere")))
	if err != nil {
		t.Fatalf("find folder: %v", err)
	}

	if folder != nil {
		t.Fatalf("expected nil, got %+v", folder)
	}
}
