package models

import "time"

// Settlement 结算（一次打款）记录，创建后不再修改
type Settlement struct {
	ID          uint      `gorm:"primarykey" json:"id"`                          // 主键
	RetailerID  uint      `gorm:"not null;index" json:"retailer_id"`             // 零售商ID
	WarehouseID *uint     `gorm:"index" json:"warehouse_id,omitempty"`           // 仓库ID
	Amount      Money     `gorm:"type:decimal(20,2);not null" json:"amount"`     // 结算总额
	Status      string    `gorm:"type:varchar(16);not null;index" json:"status"` // 状态
	AdminID     uint      `gorm:"not null;index" json:"admin_id"`                // 操作管理员
	Note        string    `gorm:"type:varchar(255)" json:"note"`                 // 备注
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                       // 创建时间

	Items []SettlementLedgerItem `gorm:"foreignKey:SettlementID" json:"items,omitempty"` // 消耗明细
}

// TableName 指定表名
func (Settlement) TableName() string {
	return "settlements"
}

// SettlementLedgerItem 结算与账本条目的分配关系
type SettlementLedgerItem struct {
	ID              uint      `gorm:"primarykey" json:"id"`                                                         // 主键
	SettlementID    uint      `gorm:"not null;index;index:idx_settlement_item_entry,unique" json:"settlement_id"`   // 结算ID
	LedgerEntryID   uint      `gorm:"not null;index;index:idx_settlement_item_entry,unique" json:"ledger_entry_id"` // 账本条目ID
	AllocatedAmount Money     `gorm:"type:decimal(20,2);not null" json:"allocated_amount"`                          // 本次分配金额
	CreatedAt       time.Time `json:"created_at"`                                                                   // 创建时间

	LedgerEntry *LedgerEntry `gorm:"foreignKey:LedgerEntryID" json:"ledger_entry,omitempty"` // 关联账本条目
}

// TableName 指定表名
func (SettlementLedgerItem) TableName() string {
	return "settlement_ledger_items"
}
