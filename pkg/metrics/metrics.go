// Package metrics 提供 Prometheus 指标：HTTP 请求指标由中间件记录，
// 入库流水线指标由工作池记录，统一暴露在 debug 端口的 /metrics.
//
// Example:
//
//	import "github.com/yeisme/filevault/pkg/metrics"
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	metrics.CheckInJobs.WithLabelValues("completed").Inc()
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/filevault/pkg/configs"
)

var (
	// RequestCounter HTTP 请求计数，按方法与路径分维度.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint"},
	)

	// RequestDuration HTTP 请求耗时直方图.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// CheckInJobs 入库任务终态计数，status 取 completed/failed.
	CheckInJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_checkin_jobs_total",
			Help: "Check-in jobs by terminal status",
		},
		[]string{"status"},
	)

	// VersionsCreated 入库产生的新版本行数.
	VersionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vault_versions_created_total",
			Help: "File versions committed by the check-in pipeline",
		},
	)

	registry = prometheus.NewRegistry()
)

// InitMetrics 注册全部指标；Enabled 为 false 时什么都不做.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	if config.RuntimeMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	registry.MustRegister(RequestCounter, RequestDuration, CheckInJobs, VersionsCreated)

	return nil
}

// StartMetricsServer 把 /metrics（以及可选的 pprof）挂到 debug engine 上.
func StartMetricsServer(config configs.MetricsConfig, debugEngine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	debugEngine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	if config.Pprof {
		debugEngine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 返回共享注册表，供 GORM 插件与 Watermill 装饰器复用.
func GetRegistry() *prometheus.Registry {
	return registry
}
