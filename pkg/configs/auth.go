package configs

import "github.com/spf13/viper"

const (
	DefaultAuthEnabled       = true
	DefaultAuthDevAllowQuery = true
)

// AuthConfig 控制统一身份认证. 身份由认证代理（oauth2-proxy 等）注入的
// 请求头提供，服务本身不做登录与会话管理.
type AuthConfig struct {
	Enabled bool `mapstructure:"enabled"` // 开启认证校验
	// SkipPaths 跳过认证的路径前缀（探活、指标、文档）
	SkipPaths []string `mapstructure:"skip_paths"`
	// DevAllowQuery 开发模式允许用 ?user= 兜底，便于本地调试
	DevAllowQuery bool `mapstructure:"dev_allow_query"`
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.enabled", DefaultAuthEnabled)
	v.SetDefault("auth.dev_allow_query", DefaultAuthDevAllowQuery)
	v.SetDefault("auth.skip_paths", []string{
		"/metrics",
		"/debug/pprof",
		"/api/v1/health",
		"/swagger",
	})
}
