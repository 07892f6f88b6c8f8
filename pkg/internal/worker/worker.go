// Package worker 实现入库任务的工作池：固定数量的 worker 从共享队列拉取任务，
// 每个任务独占一个 worker 与一个数据库事务，直至终态（成功/失败）.
//
// 状态机：submitted → running → {completed | failed}. 没有自动重试状态——
// 队列层可以重投失败任务，流水线本身不实现重试循环；按校验和去重与
// 路径哈希存在性检查保证重投是安全的.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/filevault/pkg/configs"
	ctxPkg "github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/internal/storage"
	nlog "github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/metrics"
	"github.com/yeisme/filevault/pkg/queue"
)

// Pool 入库任务工作池.
type Pool struct {
	mgr         *storage.Manager
	svc         *service.VaultService
	concurrency int
}

// NewPool 创建工作池，并发度取自配置（进程级固定）.
func NewPool(mgr *storage.Manager) *Pool {
	cfg := configs.GetConfig().Worker

	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = configs.DefaultWorkerConcurrency
	}

	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	return &Pool{
		mgr:         mgr,
		svc:         service.NewVaultService(baseCtx),
		concurrency: concurrency,
	}
}

// Run 订阅入库请求主题并启动 worker，阻塞直到 ctx 取消.
// 所有 worker 消费同一订阅通道，天然实现任务级负载均衡.
func (p *Pool) Run(ctx context.Context) error {
	msgs, err := p.mgr.GetMQClient().Subscribe(ctx, queue.TopicCheckInRequested)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", queue.TopicCheckInRequested, err)
	}

	nlog.Logger().Info().
		Int("concurrency", p.concurrency).
		Str("topic", queue.TopicCheckInRequested).
		Msg("check-in worker pool started")

	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < p.concurrency; i++ {
		id := i

		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case msg, ok := <-msgs:
					if !ok {
						return nil
					}

					p.handle(gctx, id, msg)
				}
			}
		})
	}

	return g.Wait()
}

// handle 处理一条入库请求消息. Ack/Nack 策略：
//   - 解析失败或业务上的终态失败（输入/归属错误）：Ack，任务进入 failed 终态，重投无意义
//   - 瞬时 I/O 失败（对象存储、数据库不可达）：Nack，是否重投由队列层决定
func (p *Pool) handle(ctx context.Context, workerID int, msg *message.Message) {
	env, err := queue.ParseCheckInRequested(msg)
	if err != nil {
		nlog.Logger().Error().Err(err).Str("msg_id", msg.UUID).Msg("malformed check-in message")
		msg.Ack()

		return
	}

	job := env.Payload
	l := nlog.Logger().With().
		Int("worker", workerID).
		Str("job_id", job.JobID).
		Str("user", job.UserID).
		Logger()

	l.Info().Msg("check-in job running")

	results, err := p.svc.CheckIn(ctx, &job)
	if err != nil {
		if terminal(err) {
			l.Error().Err(err).Msg("check-in job failed")
			metrics.CheckInJobs.WithLabelValues("failed").Inc()
			p.publishFailed(&job, err)
			msg.Ack()

			return
		}

		l.Warn().Err(err).Msg("check-in job hit transient error, nacking")
		msg.Nack()

		return
	}

	l.Info().Int("new_versions", len(results)).Msg("check-in job completed")
	metrics.CheckInJobs.WithLabelValues("completed").Inc()
	metrics.VersionsCreated.Add(float64(len(results)))
	p.publishCompleted(&job, results)
	msg.Ack()
}

// terminal 判断错误是否为终态：输入与归属错误不会因重试而消失.
func terminal(err error) bool {
	return errors.Is(err, service.ErrNotFound) ||
		errors.Is(err, service.ErrForbidden) ||
		errors.Is(err, service.ErrInvalidInput)
}

func (p *Pool) publishCompleted(job *queue.CheckInRequestedPayload, results []queue.CheckInResult) {
	if !configs.GetConfig().Events.Enabled || !configs.GetConfig().Events.CheckIn.Completed {
		return
	}

	err := queue.PublishCheckInCompleted(p.mgr.GetMQClient().Publisher(), queue.CheckInCompletedPayload{
		JobID:   job.JobID,
		UserID:  job.UserID,
		Results: results,
	}, queue.WithProducer("filevault"))
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("job_id", job.JobID).Msg("publish completed event failed")
	}
}

func (p *Pool) publishFailed(job *queue.CheckInRequestedPayload, jobErr error) {
	if !configs.GetConfig().Events.Enabled || !configs.GetConfig().Events.CheckIn.Failed {
		return
	}

	err := queue.PublishCheckInFailed(p.mgr.GetMQClient().Publisher(), queue.CheckInFailedPayload{
		JobID:  job.JobID,
		UserID: job.UserID,
		Error:  jobErr.Error(),
	}, queue.WithProducer("filevault"))
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("job_id", job.JobID).Msg("publish failed event failed")
	}
}
