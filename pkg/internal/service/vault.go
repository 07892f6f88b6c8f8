package service

import (
	"context"

	ctxPkg "github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/internal/storage/db"
	"github.com/yeisme/filevault/pkg/internal/storage/mq"
	"github.com/yeisme/filevault/pkg/internal/storage/s3"
)

// VaultService 文件保险库核心服务：入库编排、目录解析、版本查询与恢复.
type VaultService struct {
	s3Client *s3.Client
	dbClient *db.Client
	mqClient *mq.Client
	uploader Uploader
}

func NewVaultService(c context.Context) *VaultService {
	s3c := ctxPkg.GetS3Client(c)
	dbc := ctxPkg.GetDBClient(c)
	mqc := ctxPkg.GetMQClient(c)

	return &VaultService{
		s3Client: s3c,
		dbClient: dbc,
		mqClient: mqc,
		uploader: newS3Uploader(s3c),
	}
}

// WithUploader 替换对象存储上传器，测试时注入桩实现.
func (vs *VaultService) WithUploader(u Uploader) *VaultService {
	vs.uploader = u
	return vs
}
