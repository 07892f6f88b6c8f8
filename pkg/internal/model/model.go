package model

// All 返回需要迁移的全部模型，按外键依赖顺序排列.
func All() []any {
	return []any{
		&Folder{},
		&File{},
		&Version{},
		&UserFile{},
	}
}
