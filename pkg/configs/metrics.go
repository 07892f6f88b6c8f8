// Metrics 配置：/metrics 端点默认关闭，打开后可选暴露运行时指标与 pprof.
package configs

import (
	"github.com/spf13/viper"
)

// MetricsConfig Metrics相关配置.
type MetricsConfig struct {
	Enabled        bool `mapstructure:"enabled"`         // 是否启用Metrics
	RuntimeMetrics bool `mapstructure:"runtime_metrics"` // 是否收集 Go 运行时指标
	Pprof          bool `mapstructure:"pprof"`           // 是否暴露pprof端点
}

func (c *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.runtime_metrics", true)
	v.SetDefault("metrics.pprof", false)
}
