package configs

import "github.com/spf13/viper"

const (
	// DefaultWorkerConcurrency 默认签入工作协程数量，进程级固定.
	DefaultWorkerConcurrency = 3
)

// WorkerConfig 签入任务工作池配置.
type WorkerConfig struct {
	// Concurrency 并行处理签入任务的 worker 数量，每个 worker 独占一个事务.
	Concurrency int `mapstructure:"concurrency" rule:"min=1,max=64"`
	// Enabled 是否在本进程内启动工作池（可独立部署只跑 API 的实例）.
	Enabled bool `mapstructure:"enabled"`
}

func (c *WorkerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("worker.concurrency", DefaultWorkerConcurrency)
	v.SetDefault("worker.enabled", true)
}
