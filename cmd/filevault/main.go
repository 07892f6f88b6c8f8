// Package main 启动应用程序
package main

import "github.com/yeisme/filevault/pkg/cmd"

//	@title			FileVault API
//	@version		1.0
//	@description	FileVault 是一个个人文件保险库服务，提供目录入库、内容版本化、历史版本恢复与逻辑删除等功能。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
