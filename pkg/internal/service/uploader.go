package service

import (
	"context"
	"fmt"
	"io"

	minio "github.com/minio/minio-go/v7"

	"github.com/yeisme/filevault/pkg/internal/storage/s3"
)

// Uploader 对象存储的最小接口：上传返回存储侧版本令牌，下载返回字节流.
// 台账从不向对象存储询问一致性，只做负载传输.
type Uploader interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64) (versionToken string, err error)
	Download(ctx context.Context, key, versionToken string) (io.ReadCloser, error)
}

// s3Uploader 基于 MinIO 客户端的 Uploader 实现，使用配置中的首个 bucket.
type s3Uploader struct {
	client *s3.Client
}

func newS3Uploader(client *s3.Client) *s3Uploader {
	return &s3Uploader{client: client}
}

func (u *s3Uploader) bucket() (string, error) {
	cfg := u.client.GetConfig()
	if len(cfg.Buckets) == 0 {
		return "", fmt.Errorf("no bucket configured")
	}

	return cfg.Buckets[0], nil
}

// Upload 上传对象并返回存储侧版本令牌（未开启版本化的后端返回空串）.
func (u *s3Uploader) Upload(ctx context.Context, key string, r io.Reader, size int64) (string, error) {
	bucket, err := u.bucket()
	if err != nil {
		return "", err
	}

	info, err := u.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return info.VersionID, nil
}

// Download 按键与可选版本令牌取回对象字节流.
func (u *s3Uploader) Download(ctx context.Context, key, versionToken string) (io.ReadCloser, error) {
	bucket, err := u.bucket()
	if err != nil {
		return nil, err
	}

	opts := minio.GetObjectOptions{}
	if versionToken != "" {
		opts.VersionID = versionToken
	}

	obj, err := u.client.GetObject(ctx, bucket, key, opts)
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}

	return obj, nil
}

// buildObjectKey 构建对象存储键：用户/路径哈希前缀/路径哈希/版本号/文件名.
// 每个版本一个新键，键在台账提交前绝不复用，因此对象存储无需加锁.
func buildObjectKey(userID, pathHash, fileName string, versionNumber int) string {
	prefix := pathHash
	if len(prefix) > 2 {
		prefix = pathHash[:2]
	}

	return fmt.Sprintf("%s/%s/%s/v%d/%s", userID, prefix, pathHash, versionNumber, fileName)
}

// BuildDownloadURL 组合下载地址：存在版本令牌时附加为查询参数.
func BuildDownloadURL(s3Key, versionToken string) string {
	if versionToken == "" {
		return s3Key
	}

	return s3Key + "?versionId=" + versionToken
}
