// Package scheduler 基于 gocron/v2 封装定时任务调度，承载台账的周期性审计任务，
// 并维护任务状态快照供调度器管理接口查询.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yeisme/filevault/pkg/log"
)

// refreshInterval 状态快照的后台刷新周期.
const refreshInterval = 10 * time.Second

// JobStatus 表示任务的状态类型.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled" // 任务已调度
	StatusRunning   JobStatus = "running"   // 任务正在运行
	StatusStopped   JobStatus = "stopped"   // 任务已停止
	StatusError     JobStatus = "error"     // 任务出错
)

// JobInfo 是单个定时任务的状态快照.
type JobInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CronExpr    string    `json:"cron_expr"`
	NextRun     time.Time `json:"next_run"`
	LastRun     time.Time `json:"last_run"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Scheduler 包装 gocron，按任务名索引任务与其状态快照.
type Scheduler struct {
	inner  gocron.Scheduler
	byName map[string]gocron.Job
	infos  map[string]*JobInfo
	names  map[uuid.UUID]string
	mu     sync.RWMutex
	logger *zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler 创建调度器并启动后台快照刷新.
func NewScheduler() (*Scheduler, error) {
	inner, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		inner:  inner,
		byName: make(map[string]gocron.Job),
		infos:  make(map[string]*JobInfo),
		names:  make(map[uuid.UUID]string),
		logger: log.Logger(),
		ctx:    ctx,
		cancel: cancel,
	}

	go s.refreshLoop()

	return s, nil
}

// AddCron 注册一个 cron 表达式任务，任务名在调度器内唯一.
func (s *Scheduler) AddCron(name string, cronExpr string, job func(ctx context.Context), ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	// 包装任务以跟踪运行状态，panic 记为 error 状态而不打断调度器
	run := func(ctx context.Context) {
		s.setStatus(name, StatusRunning, "")

		defer func() {
			if r := recover(); r != nil {
				s.setStatus(name, StatusError, fmt.Sprintf("panic: %v", r))
				s.logger.Error().Str("job", name).Interface("panic", r).Msg("Scheduled job panicked")
			}
		}()

		job(ctx)

		s.setStatus(name, StatusScheduled, "")
		s.markSuccess(name)
	}

	j, err := s.inner.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(run, ctx),
		gocron.WithName(name),
		gocron.WithEventListeners(
			gocron.AfterJobRuns(func(jobID uuid.UUID, jobName string) {
				s.mu.Lock()
				defer s.mu.Unlock()

				if info := s.infos[jobName]; info != nil {
					info.LastRun = time.Now()
					info.UpdatedAt = time.Now()
				}
			}),
		),
	)
	if err != nil {
		return err
	}

	now := time.Now()
	nextRun, _ := j.NextRun()

	s.byName[name] = j
	s.names[j.ID()] = name
	s.infos[name] = &JobInfo{
		ID:        j.ID().String(),
		Name:      name,
		CronExpr:  cronExpr,
		NextRun:   nextRun,
		Status:    StatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.logger.Info().Str("job", name).Str("cron", cronExpr).Msg("Added cron job")

	return nil
}

// Start 启动调度器，曾被 StopJobs 停掉的任务恢复为 scheduled.
func (s *Scheduler) Start() {
	s.logger.Info().Msg("Starting scheduler")
	s.inner.Start()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, info := range s.infos {
		if info.Status == StatusStopped {
			info.Status = StatusScheduled
			info.UpdatedAt = time.Now()
		}
	}
}

// RemoveJob 按任务 ID 移除任务与其快照.
func (s *Scheduler) RemoveJob(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name, ok := s.names[id]; ok {
		delete(s.byName, name)
		delete(s.infos, name)
		delete(s.names, id)
	}

	return s.inner.RemoveJob(id)
}

// Shutdown 停止后台刷新并关闭调度器.
func (s *Scheduler) Shutdown() error {
	s.cancel()
	return s.inner.Shutdown()
}

// StopJobs 停止所有任务的执行并把快照标记为 stopped.
func (s *Scheduler) StopJobs() error {
	if err := s.inner.StopJobs(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, info := range s.infos {
		info.Status = StatusStopped
		info.UpdatedAt = time.Now()
	}

	return nil
}

// JobsWaitingInQueue 返回排队等待执行的任务数.
func (s *Scheduler) JobsWaitingInQueue() int {
	return s.inner.JobsWaitingInQueue()
}

// GetJobInfos 返回全部任务的状态快照副本.
func (s *Scheduler) GetJobInfos() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.infos))
	for _, info := range s.infos {
		out = append(out, *info)
	}

	return out
}

func (s *Scheduler) refreshLoop() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.refreshAll()
		}
	}
}

// refreshAll 从 gocron 拉取各任务的运行时间，刷新快照.
func (s *Scheduler) refreshAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, job := range s.byName {
		info := s.infos[name]
		if info == nil || info.Status == StatusStopped {
			continue
		}

		if nextRun, err := job.NextRun(); err == nil {
			info.NextRun = nextRun
		}

		if lastRun, err := job.LastRun(); err == nil {
			info.LastRun = lastRun
		}

		info.Status = StatusScheduled
		info.UpdatedAt = time.Now()
	}
}

func (s *Scheduler) setStatus(name string, status JobStatus, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info := s.infos[name]; info != nil {
		info.Status = status
		info.Error = errMsg
		info.UpdatedAt = time.Now()
	}
}

func (s *Scheduler) markSuccess(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info := s.infos[name]; info != nil {
		info.LastSuccess = time.Now()
	}
}
