package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 建议在发布消息时填充 TraceID、OccurredAt、Producer 等，便于追踪链路与审计.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// -------------------------- 入库任务领域 --------------------------

// CheckInRequestedPayload 入库任务请求. 任务是一次性的工作单元：
// worker 恰好消费一次，终态（成功/失败）之后即丢弃，不留持久任务记录.
type CheckInRequestedPayload struct {
	// JobID 任务标识，ULID，提交时生成
	JobID  string `json:"job_id"`
	UserID string `json:"user_id"`
	// WorkingDirectoryID 目标工作目录的 folder_id
	WorkingDirectoryID uint `json:"working_directory_id"`
	// Folders 需要递归展开的目录路径（相对工作目录）
	Folders []string `json:"folders,omitempty"`
	// Files 显式提交的文件路径（相对工作目录）
	Files []string `json:"files,omitempty"`
}

// CheckInResult 单个文件的入库结果.
type CheckInResult struct {
	FileID        uint   `json:"file_id"`
	Path          string `json:"path"`
	StorageKey    string `json:"storage_key,omitempty"`
	SizeInBytes   int64  `json:"size_in_bytes"`
	Checksum      string `json:"checksum"`
	VersionNumber int    `json:"version_number"`
	// Unchanged 为 true 时命中去重快路径，未产生新版本也未上传
	Unchanged bool `json:"unchanged,omitempty"`
}

// CheckInCompletedPayload 入库任务完成.
type CheckInCompletedPayload struct {
	JobID   string          `json:"job_id"`
	UserID  string          `json:"user_id"`
	Results []CheckInResult `json:"results,omitempty"`
}

// CheckInFailedPayload 入库任务失败（整体回滚，无部分提交）.
type CheckInFailedPayload struct {
	JobID  string `json:"job_id"`
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}

// -------------------------- 版本事件领域 --------------------------

// VersionRef 标识版本台账中的一个版本.
type VersionRef struct {
	FileID        uint   `json:"file_id"`
	VersionID     uint   `json:"version_id"`
	VersionNumber int    `json:"version_number"`
	Checksum      string `json:"checksum,omitempty"`
	StorageKey    string `json:"storage_key,omitempty"`
	SizeInBytes   int64  `json:"size_in_bytes,omitempty"`
}

// VersionCreatedPayload 新版本写入版本台账.
type VersionCreatedPayload struct {
	UserID  string     `json:"user_id"`
	Version VersionRef `json:"version"`
}

// VersionRestoredPayload 历史版本恢复到磁盘并激活.
type VersionRestoredPayload struct {
	UserID     string     `json:"user_id"`
	Version    VersionRef `json:"version"`
	TargetPath string     `json:"target_path,omitempty"`
}

// VersionDeletedPayload 版本被逻辑删除.
type VersionDeletedPayload struct {
	UserID  string     `json:"user_id"`
	Version VersionRef `json:"version"`
}

// -------------------------- 目录事件领域 --------------------------

// FolderCreatedPayload 目录解析过程中新建文件夹.
type FolderCreatedPayload struct {
	UserID     string `json:"user_id"`
	FolderID   uint   `json:"folder_id"`
	FolderPath string `json:"folder_path"`
	PathHash   string `json:"path_hash"`
}
