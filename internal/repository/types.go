package repository

import (
	"time"

	"github.com/payout-ledger/internal/models"
)

// LedgerEntryListFilter 查询账本流水的过滤条件
type LedgerEntryListFilter struct {
	Page            int
	PageSize        int
	RetailerID      uint
	WarehouseID     *uint
	Status          string
	TransactionType string
	EntryType       string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
}

// AvailableEntryQuery 查询未结清条目的条件
// WarehouseID 为空时返回零售商全部仓库的条目；EligibleAt 非空时仅返回 trigger_date 不晚于该时间的条目
type AvailableEntryQuery struct {
	RetailerID  uint
	WarehouseID *uint
	EligibleAt  *time.Time
}

// SettlementListFilter 查询结算记录的过滤条件
type SettlementListFilter struct {
	Page        int
	PageSize    int
	RetailerID  uint
	WarehouseID *uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// SettledAmountPatch 结算对单个条目的 CAS 更新
type SettledAmountPatch struct {
	EntryID         uint
	ExpectedSettled models.Money
	NewSettled      models.Money
	Status          string
	SettledAt       time.Time
}

// AuthzAuditLogListFilter 权限审计日志查询条件
type AuthzAuditLogListFilter struct {
	Page            int
	PageSize        int
	OperatorAdminID uint
	TargetAdminID   uint
	Action          string
}

// AdminLoginLogListFilter 管理员登录日志查询条件
type AdminLoginLogListFilter struct {
	Page        int
	PageSize    int
	AdminID     uint
	Username    string
	Status      string
	ClientIP    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
