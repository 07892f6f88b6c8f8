// Package jobs 负责注册与实现业务定时任务（基于 scheduler）。
package jobs

import (
	"context"
	"fmt"

	ctxPkg "github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/internal/storage"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/scheduler"
)

// RegisterCronJobs 配置业务定时任务：
//   - 每天 03:30 审计激活指针不变式（每个 (user, file) 恰好一行激活）
//   - 每天 03:45 审计台账不变式（latest_version 等于未删除版本的最大号）
//
// 审计只报告，不修复：指针漂移属于编程/不变式错误，出现即是 bug，
// 自动修复只会掩盖它.
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	// 将 storage manager 注入到 context，便于任务内使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	_ = sched.AddCron(JobActivationAudit, CronActivationAudit, func(ctx context.Context) {
		runActivationAudit(ctx, mgr)
	}, baseCtx)

	_ = sched.AddCron(JobLedgerAudit, CronLedgerAudit, func(ctx context.Context) {
		runLedgerAudit(ctx, mgr)
	}, baseCtx)

	return nil
}

// activationDrift 激活行数偏离恰好一行的 (user, file) 组.
type activationDrift struct {
	UserID      string
	FileID      uint
	ActiveCount int
}

// runActivationAudit 检查每个有持有记录的 (user, file) 是否恰有一行激活.
func runActivationAudit(ctx context.Context, mgr *storage.Manager) {
	l := log.Logger().With().Str("job", JobActivationAudit).Logger()

	var drifts []activationDrift

	err := mgr.GetDBClient().WithContext(ctx).
		Table("user_files").
		Select("user_id, file_id, SUM(CASE WHEN is_active THEN 1 ELSE 0 END) AS active_count").
		Where("is_deleted = ?", false).
		Group("user_id, file_id").
		Having("SUM(CASE WHEN is_active THEN 1 ELSE 0 END) <> 1").
		Scan(&drifts).Error
	if err != nil {
		l.Error().Err(err).Msg("activation audit query failed")
		return
	}

	if len(drifts) == 0 {
		l.Info().Msg("activation audit clean")
		return
	}

	for _, d := range drifts {
		l.Error().
			Str("user", d.UserID).
			Uint("file_id", d.FileID).
			Int("active_count", d.ActiveCount).
			Msg("activation invariant violated")
	}
}

// ledgerDrift latest_version 与实际最高版本号不一致的文件.
type ledgerDrift struct {
	FileID        uint
	LatestVersion int
	HighestNumber int
}

// runLedgerAudit 检查 latest_version 是否等于未删除版本中的最大 version_number.
func runLedgerAudit(ctx context.Context, mgr *storage.Manager) {
	l := log.Logger().With().Str("job", JobLedgerAudit).Logger()

	var drifts []ledgerDrift

	err := mgr.GetDBClient().WithContext(ctx).
		Table("files").
		Select("files.file_id, files.latest_version, COALESCE(MAX(versions.version_number), 0) AS highest_number").
		Joins("LEFT JOIN versions ON versions.file_id = files.file_id AND versions.is_deleted = ?", false).
		Where("files.is_deleted = ?", false).
		Group("files.file_id, files.latest_version").
		Having("files.latest_version <> COALESCE(MAX(versions.version_number), 0)").
		Scan(&drifts).Error
	if err != nil {
		l.Error().Err(err).Msg("ledger audit query failed")
		return
	}

	if len(drifts) == 0 {
		l.Info().Msg("ledger audit clean")
		return
	}

	for _, d := range drifts {
		l.Error().
			Uint("file_id", d.FileID).
			Int("latest_version", d.LatestVersion).
			Int("highest_number", d.HighestNumber).
			Msg("ledger invariant violated")
	}
}
