package models

import (
	"time"

	"github.com/payout-ledger/internal/constants"
)

// LedgerEntry 账本条目
// 金额只存绝对值，方向由 EntryType 决定；创建后仅 SettledAmount/Status 会被结算更新
type LedgerEntry struct {
	ID              uint       `gorm:"primarykey" json:"id"`                                                                             // 主键
	RetailerID      uint       `gorm:"not null;index:idx_ledger_entry_fifo,priority:1" json:"retailer_id"`                               // 零售商ID
	WarehouseID     *uint      `gorm:"index:idx_ledger_entry_fifo,priority:2" json:"warehouse_id,omitempty"`                             // 仓库ID（人工调账可为空）
	OrderID         *uint      `gorm:"index" json:"order_id,omitempty"`                                                                  // 订单ID
	OrderItemID     *uint      `gorm:"index:idx_ledger_entry_order_item,unique" json:"order_item_id,omitempty"`                          // 订单项ID
	Amount          Money      `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`                                              // 金额（绝对值）
	TransactionType string     `gorm:"type:varchar(32);not null;index;index:idx_ledger_entry_order_item,unique" json:"transaction_type"` // 交易类型
	EntryType       string     `gorm:"type:varchar(16);not null;index" json:"entry_type"`                                                // 记账方向
	Status          string     `gorm:"type:varchar(32);not null;index" json:"status"`                                                    // 状态
	SettledAmount   Money      `gorm:"type:decimal(20,2);not null;default:0" json:"settled_amount"`                                      // 已结算金额
	TriggerDate     time.Time  `gorm:"not null;index:idx_ledger_entry_fifo,priority:3" json:"trigger_date"`                              // 可结算日期
	AdminID         *uint      `gorm:"index" json:"admin_id,omitempty"`                                                                  // 人工调账操作人
	Note            string     `gorm:"type:varchar(255)" json:"note"`                                                                    // 备注
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                                                                          // 创建时间
	UpdatedAt       time.Time  `json:"updated_at"`                                                                                       // 更新时间
	LastSettledAt   *time.Time `json:"last_settled_at,omitempty"`                                                                        // 最近一次结算时间
}

// TableName 指定表名
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// Remaining 未结算余额
func (e LedgerEntry) Remaining() Money {
	remaining := e.Amount.Sub(e.SettledAmount.Decimal)
	if remaining.IsNegative() {
		return Money{}
	}
	return NewMoneyFromDecimal(remaining)
}

// IsCredit 是否为贷记（可被结算消耗）
func (e LedgerEntry) IsCredit() bool {
	return e.EntryType == constants.LedgerEntryTypeCredit
}

// DeriveLedgerStatus 根据已结算金额推导条目状态
func DeriveLedgerStatus(amount, settled Money) string {
	switch {
	case settled.Decimal.Sign() <= 0:
		return constants.LedgerStatusAvailable
	case settled.Decimal.GreaterThanOrEqual(amount.Decimal):
		return constants.LedgerStatusSettled
	default:
		return constants.LedgerStatusPartiallySettled
	}
}
