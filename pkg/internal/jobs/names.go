package jobs

// 任务名称常量，便于统一管理与引用.
const (
	JobActivationAudit = "vault.activation_audit"
	JobLedgerAudit     = "vault.ledger_audit"
)

// Cron 表达式常量（可选，但推荐一并集中管理）.
const (
	CronActivationAudit = "30 3 * * *"
	CronLedgerAudit     = "45 3 * * *"
)
