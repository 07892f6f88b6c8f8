package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// HashReader 流式计算内容的 SHA-256，十六进制编码.
// 恒定内存，与文件大小无关；读取中途出错时必须中止该文件的入库，不能静默跳过.
func HashReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash stream: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashFile 打开文件并计算内容校验和.
func HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("stat %s: %w", path, err)
	}

	sum, err := HashReader(f)
	if err != nil {
		return "", 0, err
	}

	return sum, info.Size(), nil
}

// NormalizePath 规范化绝对路径：清理冗余分隔符与 . / ..，统一为斜杠分隔.
// 路径哈希必须基于规范化结果，否则同一目录会因写法不同而产生多行.
func NormalizePath(path string) string {
	cleaned := filepath.Clean(path)

	return strings.TrimSuffix(filepath.ToSlash(cleaned), "/")
}

// HashPath 计算规范化绝对路径的 SHA-256，作为文件夹与文件的稳定身份键，
// 使身份与原始路径的长度、编码解耦.
func HashPath(path string) string {
	sum := sha256.Sum256([]byte(NormalizePath(path)))

	return hex.EncodeToString(sum[:])
}
