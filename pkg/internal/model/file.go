package model

import (
	"time"
)

// File 文件模型. 同一路径只创建一次，内容变化时只递增 LatestVersion，
// 不会为相同路径重建新行.
type File struct {
	FileID   uint   `gorm:"primaryKey" json:"file_id"`
	FileName string `gorm:"size:512;index:idx_files_hash_name" json:"file_name"`
	// 所属文件夹
	FolderID uint `gorm:"index" json:"folder_id"`
	// 绝对路径哈希，与 FileName 共同定位文件
	PathHash string `gorm:"size:64;index:idx_files_hash_name" json:"path_hash"`
	FilePath string `gorm:"size:1024"                         json:"file_path"`
	// 不变式：等于未删除版本中最大的 VersionNumber
	LatestVersion int  `gorm:"default:0"     json:"latest_version"`
	IsActive      bool `gorm:"default:true"  json:"is_active"`
	IsDeleted     bool `gorm:"default:false" json:"is_deleted"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName 指定表名.
func (File) TableName() string { return "files" }

// Version 版本模型. 版本行一经创建不可变，新版本永远是新行；
// 删除只打 IsDeleted 标记，行与对象存储负载都保留.
type Version struct {
	VersionID uint `gorm:"primaryKey" json:"version_id"`
	FileID    uint `gorm:"index;uniqueIndex:idx_versions_file_number" json:"file_id"`
	// 1 起步、逐文件严格递增
	VersionNumber int   `gorm:"uniqueIndex:idx_versions_file_number" json:"version_number"`
	SizeInBytes   int64 `json:"size_in_bytes"`
	// 内容 SHA-256，十六进制编码，变更检测键
	Checksum string `gorm:"size:64;index" json:"checksum"`
	S3Key    string `gorm:"size:1024"     json:"s3_key"`
	// 对象存储侧版本令牌，后端未启用版本化时为空
	S3VersionID string `gorm:"size:255"      json:"s3_version_id,omitempty"`
	IsDeleted   bool   `gorm:"default:false" json:"is_deleted"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName 指定表名.
func (Version) TableName() string { return "versions" }

// UserFile 用户激活指针. 核心一致性契约：对任意 (user, file)，
// 未删除行中恰有一行 IsActive=true，每个触碰它的事务都必须保持该不变式.
type UserFile struct {
	UserFileID uint   `gorm:"primaryKey"     json:"user_file_id"`
	UserID     string `gorm:"size:255;index:idx_user_files_user_file" json:"user_id"`
	FileID     uint   `gorm:"index:idx_user_files_user_file"          json:"file_id"`
	VersionID  uint   `gorm:"index"          json:"version_id"`
	IsActive   bool   `gorm:"default:true"   json:"is_active"`
	IsDeleted  bool   `gorm:"default:false"  json:"is_deleted"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName 指定表名.
func (UserFile) TableName() string { return "user_files" }
