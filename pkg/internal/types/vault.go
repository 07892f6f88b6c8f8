package types

// FolderRef 入库请求中的目录项.
type FolderRef struct {
	FolderPath string `binding:"required" json:"folder_path"`
}

// FileRef 入库请求中的文件项.
type FileRef struct {
	FilePath string `binding:"required" json:"file_path"`
}

// CheckInRequest 提交入库任务请求. 路径均相对目标工作目录.
type CheckInRequest struct {
	WorkingDirectoryID uint        `binding:"required" json:"working_directory_id"`
	Folders            []FolderRef `json:"folders,omitempty"`
	Files              []FileRef   `json:"files,omitempty"`
}

// CheckInAcceptedResponse 入库任务受理响应. 受理不代表完成：
// 实际成功/失败通过后续版本查询或日志观察.
type CheckInAcceptedResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"` // 恒为 accepted
}

// FileInfo 文件及其用户当前激活版本的摘要.
type FileInfo struct {
	FileID              uint   `json:"file_id"`
	FileName            string `json:"file_name"`
	FilePath            string `json:"file_path"`
	FolderID            uint   `json:"folder_id"`
	LatestVersion       int    `json:"latest_version"`
	ActiveVersionNumber int    `json:"active_version_number"`
	SizeInBytes         int64  `json:"size_in_bytes"`
	Checksum            string `json:"checksum"`
	UpdatedAt           string `json:"updated_at,omitempty"` // RFC3339
}

// ListFilesResponse 用户文件列表响应（每个文件带激活版本信息）.
type ListFilesResponse struct {
	Files []FileInfo `json:"files"`
	Total int        `json:"total"`
}

// VersionInfo 单个版本的台账信息.
type VersionInfo struct {
	VersionID     uint   `json:"version_id"`
	VersionNumber int    `json:"version_number"`
	SizeInBytes   int64  `json:"size_in_bytes"`
	Checksum      string `json:"checksum"`
	StorageKey    string `json:"storage_key"`
	URL           string `json:"url"` // storage_key，有版本令牌时附加 ?versionId=
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at,omitempty"` // RFC3339
}

// ListFileVersionsResponse 文件版本列表响应.
type ListFileVersionsResponse struct {
	FileID   uint          `json:"file_id"`
	Versions []VersionInfo `json:"versions"`
	Total    int           `json:"total"`
}

// LatestVersionResponse 最新版本响应.
type LatestVersionResponse struct {
	FileID        uint   `json:"file_id"`
	VersionNumber int    `json:"version_number"`
	StorageKey    string `json:"storage_key"`
	URL           string `json:"url"`
	SizeInBytes   int64  `json:"size_in_bytes"`
	Checksum      string `json:"checksum"`
}

// RestoreVersionRequest 恢复指定版本请求.
type RestoreVersionRequest struct {
	VersionNumber int `binding:"required,min=1" json:"version_number"`
}

// RestoreVersionResponse 恢复版本响应.
type RestoreVersionResponse struct {
	FileID        uint   `json:"file_id"`
	VersionNumber int    `json:"version_number"`
	TargetPath    string `json:"target_path"`
	Success       bool   `json:"success"`
}

// DeleteVersionResponse 逻辑删除版本响应.
type DeleteVersionResponse struct {
	FileID        uint `json:"file_id"`
	VersionNumber int  `json:"version_number"`
	Success       bool `json:"success"`
}

// SetWorkingDirectoryRequest 登记工作目录请求. 路径须为绝对路径.
type SetWorkingDirectoryRequest struct {
	FolderPath string `binding:"required" json:"folder_path"`
}

// FolderInfo 文件夹摘要.
type FolderInfo struct {
	FolderID           uint   `json:"folder_id"`
	FolderPath         string `json:"folder_path"`
	FolderName         string `json:"folder_name"`
	ParentFolderID     *uint  `json:"parent_folder_id,omitempty"`
	IsWorkingDirectory bool   `json:"is_working_directory"`
	CreatedAt          string `json:"created_at,omitempty"` // RFC3339
}

// ListFoldersResponse 文件夹列表响应.
type ListFoldersResponse struct {
	Folders []FolderInfo `json:"folders"`
	Total   int          `json:"total"`
}
