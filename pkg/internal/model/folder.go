// Package model 定义版本台账的 GORM 模型：文件夹、文件、版本与用户激活指针.
// 台账是唯一真源；对象存储只保存不可变的字节负载，一致性判断从不依赖它.
package model

import (
	"time"
)

// Folder 文件夹模型. 身份由规范化绝对路径的哈希（PathHash）唯一确定，
// 首次签入触达该路径时创建，之后只打标记，从不物理删除.
type Folder struct {
	FolderID uint `gorm:"primaryKey" json:"folder_id"`
	// 用户名或租户标识，来自认证代理注入的请求头
	UserID     string `gorm:"size:255;index"        json:"user_id"`
	FolderPath string `gorm:"size:1024"             json:"folder_path"`
	// 规范化绝对路径的 SHA-256，全表唯一，保证同一路径至多一行
	PathHash string `gorm:"size:64;uniqueIndex"   json:"path_hash"`
	// 父文件夹引用，工作目录根的 parent 为空
	ParentFolderID     *uint  `gorm:"index"      json:"parent_folder_id,omitempty"`
	FolderName         string `gorm:"size:512"   json:"folder_name"`
	IsWorkingDirectory bool   `gorm:"index"      json:"is_working_directory"`
	IsActive           bool   `gorm:"default:true"  json:"is_active"`
	IsDeleted          bool   `gorm:"default:false" json:"is_deleted"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName 指定表名.
func (Folder) TableName() string { return "folders" }
