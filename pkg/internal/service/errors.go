package service

import "errors"

// 错误类别哨兵：调用方（HTTP 处理器、worker）用 errors.Is 做分支，
// 转换为对应的传输层状态；wrap 时保留具体上下文.
var (
	// ErrNotFound 资源不存在：工作目录、文件、版本未找到或已逻辑删除.
	ErrNotFound = errors.New("not found")

	// ErrForbidden 资源存在但不属于请求用户.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput 请求参数不合法（空路径、非法版本号等），不会自动重试.
	ErrInvalidInput = errors.New("invalid input")
)
