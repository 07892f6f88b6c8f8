// Package app 提供应用程序的初始化和配置功能.
package app

import (
	contextPkg "context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/filevault/pkg/api"
	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/jobs"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/router"
	"github.com/yeisme/filevault/pkg/internal/storage"
	"github.com/yeisme/filevault/pkg/internal/worker"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/metrics"
	"github.com/yeisme/filevault/pkg/middleware"
	"github.com/yeisme/filevault/pkg/scheduler"
	"github.com/yeisme/filevault/pkg/tracing"
)

type App struct {
	Engine    *gin.Engine
	config    *configs.AppConfig
	manager   *storage.Manager
	scheduler *scheduler.Scheduler
	pool      *worker.Pool
	cancel    contextPkg.CancelFunc
}

func NewApp(configPath string) *App {
	ctx := contextPkg.Background()
	engine := gin.New()

	// 初始化配置
	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	// 初始化追踪
	config := configs.GetConfig()
	if err := tracing.InitTracer(config.Tracing); err != nil {
		fmt.Printf("Error initializing tracing: %v\n", err)
		os.Exit(1)
	}

	// 初始化监控
	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	// 台账模型迁移
	if err := manager.GetDBClient().Migrate(model.All()...); err != nil {
		fmt.Printf("Error migrating models: %v\n", err)
		os.Exit(1)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	sched, err := scheduler.NewScheduler()
	if err != nil {
		fmt.Printf("Error initializing scheduler: %v\n", err)
		os.Exit(1)
	}

	if err := jobs.RegisterCronJobs(sched, manager); err != nil {
		fmt.Printf("Error registering cron jobs: %v\n", err)
		os.Exit(1)
	}

	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server),
		gzip.Gzip(gzip.DefaultCompression),
		middleware.AuthMiddleware(config.Auth),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.CircuitBreakerMiddleware(config.CircuitBreaker),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.StorageMiddleware(manager),
		middleware.SchedulerMiddleware(sched),
	)

	// 业务路由
	api.RegisterRoutes(engine)
	router.RegisterSchedulerRoutes(engine.Group("/api/v1"))
	router.RegisterSwaggerRoute(engine)

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	return &App{
		Engine:    engine,
		config:    config,
		manager:   manager,
		scheduler: sched,
	}
}

// Run 启动调度器、worker 池与 HTTP 服务，阻塞直至服务退出.
func (a *App) Run() error {
	ctx, cancel := contextPkg.WithCancel(contextPkg.Background())
	a.cancel = cancel

	a.scheduler.Start()

	if a.config.Worker.Enabled {
		a.pool = worker.NewPool(a.manager)

		go func() {
			if err := a.pool.Run(ctx); err != nil && ctx.Err() == nil {
				log.Logger().Error().Err(err).Msg("worker pool exited")
			}
		}()
	}

	srv := &http.Server{
		Addr:         a.config.Server.Addr(),
		Handler:      a.Engine,
		ReadTimeout:  a.config.Server.GetTimeoutDuration(),
		WriteTimeout: a.config.Server.GetTimeoutDuration(),
	}

	return srv.ListenAndServe()
}

// Shutdown 停止后台组件并释放存储资源.
func (a *App) Shutdown() error {
	if a.cancel != nil {
		a.cancel()
	}

	if a.scheduler != nil {
		if err := a.scheduler.Shutdown(); err != nil {
			log.Logger().Warn().Err(err).Msg("scheduler shutdown")
		}
	}

	if err := tracing.ShutdownTracer(contextPkg.Background()); err != nil {
		log.Logger().Warn().Err(err).Msg("tracer shutdown")
	}

	if a.manager != nil {
		return a.manager.Close()
	}

	return nil
}
