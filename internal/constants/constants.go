package constants

// 账本交易类型常量
const (
	LedgerTxnTypeOrderRevenue = "ORDER_REVENUE"
	LedgerTxnTypePlatformFee  = "PLATFORM_FEE"
	LedgerTxnTypeManualCredit = "MANUAL_CREDIT"
	LedgerTxnTypeManualDebit  = "MANUAL_DEBIT"
)

// 账本记账方向常量
const (
	LedgerEntryTypeCredit = "CREDIT"
	LedgerEntryTypeDebit  = "DEBIT"
)

// 账本条目状态常量
const (
	LedgerStatusAvailable        = "AVAILABLE"
	LedgerStatusPartiallySettled = "PARTIALLY_SETTLED"
	LedgerStatusSettled          = "SETTLED"
)

// 结算状态常量
const (
	SettlementStatusCompleted = "COMPLETED"
	SettlementStatusFailed    = "FAILED"
)

// 结算执行结果（指标标签）
const (
	SettlementResultCompleted    = "completed"
	SettlementResultInsufficient = "insufficient"
	SettlementResultConflict     = "conflict"
	SettlementResultError        = "error"
)

// 内置角色常量
const (
	RoleFinanceOperator = "finance_operator"
	RoleReadonlyAuditor = "readonly_auditor"
)

// 登录日志状态常量
const (
	LoginLogStatusSuccess = "success"
	LoginLogStatusFailed  = "failed"
)

// 登录日志失败原因常量
const (
	LoginLogFailReasonBadRequest         = "bad_request"
	LoginLogFailReasonInvalidCredentials = "invalid_credentials"
	LoginLogFailReasonRateLimited        = "rate_limited"
	LoginLogFailReasonInternalError      = "internal_error"
)

// 队列常量
const (
	QueueDefault            = "default"
	QueueLedger             = "ledger"
	TaskLedgerOrderEntries  = "ledger:order_entries"
	TaskLedgerCacheEvict    = "ledger:dashboard_evict"
	LedgerTaskMaxRetry      = 8
	LedgerTaskTimeoutSecond = 30
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "pl"
)

// 内部接口常量
const (
	InternalTokenHeader = "X-Internal-Token"
)

// 站点语言常量
const (
	LocaleZhCN = "zh-CN"
	LocaleEnUS = "en-US"
)

// 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleZhCN, LocaleEnUS}
