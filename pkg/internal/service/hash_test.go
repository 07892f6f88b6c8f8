package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHashReader(t *testing.T) {
	// echo -n "hello world" | sha256sum
	const want = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

	got, err := HashReader(strings.NewReader("hello world"))
	if err != nil {
		t.Fatalf("hash reader: %v", err)
	}

	if got != want {
		t.Fatalf("checksum = %s, want %s", got, want)
	}
}

func TestHashReaderEmpty(t *testing.T) {
	const want = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	got, err := HashReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("hash reader: %v", err)
	}

	if got != want {
		t.Fatalf("empty checksum = %s, want %s", got, want)
	}
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	sum, size, err := HashFile(path)
	if err != nil {
		t.Fatalf("hash file: %v", err)
	}

	if size != int64(len("hello world")) {
		t.Fatalf("size = %d, want %d", size, len("hello world"))
	}

	if sum != "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9" {
		t.Fatalf("unexpected checksum %s", sum)
	}
}

func TestHashFileMissing(t *testing.T) {
	if _, _, err := HashFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"/vault/docs/", "/vault/docs"},
		{"/vault//docs", "/vault/docs"},
		{"/vault/./docs", "/vault/docs"},
		{"/vault/tmp/../docs", "/vault/docs"},
		{"/vault", "/vault"},
	}

	for _, c := range cases {
		if got := NormalizePath(c.in); got != c.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestHashPathStable(t *testing.T) {
	// 同一目录的不同写法必须产生同一路径哈希
	variants := []string{"/vault/docs", "/vault/docs/", "/vault//docs", "/vault/./docs"}

	want := HashPath(variants[0])
	for _, v := range variants[1:] {
		if got := HashPath(v); got != want {
			t.Errorf("HashPath(%q) = %s, want %s", v, got, want)
		}
	}

	if HashPath("/vault/docs") == HashPath("/vault/notes") {
		t.Fatal("distinct paths must not collide")
	}
}

func TestBuildObjectKey(t *testing.T) {
	key := buildObjectKey("alice@example.com", "abcdef", "a.txt", 3)
	if key != "alice@example.com/ab/abcdef/v3/a.txt" {
		t.Fatalf("unexpected object key %s", key)
	}
}

func TestBuildDownloadURL(t *testing.T) {
	if got := BuildDownloadURL("u/ab/hash/v1/a.txt", ""); got != "u/ab/hash/v1/a.txt" {
		t.Fatalf("url without token = %s", got)
	}

	want := "u/ab/hash/v1/a.txt?versionId=tok-1"
	if got := BuildDownloadURL("u/ab/hash/v1/a.txt", "tok-1"); got != want {
		t.Fatalf("url with token = %s, want %s", got, want)
	}
}
