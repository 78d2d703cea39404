package repository

import (
	"errors"
	"time"

	"github.com/payout-ledger/internal/constants"
	"github.com/payout-ledger/internal/models"

	"gorm.io/gorm"
)

// DashboardRepository 看板聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetLedgerOverview(retailerID uint, warehouseID *uint, now time.Time) (DashboardLedgerRow, error)
	GetEarliestUnsettledCredit(retailerID uint, warehouseID *uint) (*time.Time, error)
	GetSettlementOverview(retailerID uint, warehouseID *uint) (DashboardSettlementRow, error)
}

// DashboardLedgerRow 账本聚合原始结果
type DashboardLedgerRow struct {
	TotalOrders     int64
	TotalSales      models.Money
	CreditRemaining models.Money
	DebitRemaining  models.Money
	AvailableCredit models.Money
	PendingCredit   models.Money
}

// DashboardSettlementRow 结算聚合原始结果
// 按被消耗条目归属统计，与账本条目使用同一范围
type DashboardSettlementRow struct {
	SettledTotal   models.Money
	LastSettlement *models.Settlement
}

// GormDashboardRepository GORM 看板聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建看板仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

func ledgerScope(db *gorm.DB, retailerID uint, warehouseID *uint) *gorm.DB {
	query := db.Model(&models.LedgerEntry{}).Where("retailer_id = ?", retailerID)
	if warehouseID != nil {
		query = query.Where("(warehouse_id = ? OR warehouse_id IS NULL)", *warehouseID)
	}
	return query
}

const remainingExpr = "amount - settled_amount"

type moneyAggregate struct {
	Total models.Money
}

// sumMoney 以定点金额读取 SUM 结果
func sumMoney(query *gorm.DB, expr string) (models.Money, error) {
	var out moneyAggregate
	if err := query.Select("COALESCE(SUM(" + expr + "), 0) AS total").Scan(&out).Error; err != nil {
		return models.Money{}, err
	}
	return out.Total, nil
}

// GetLedgerOverview 获取账本总览
func (r *GormDashboardRepository) GetLedgerOverview(retailerID uint, warehouseID *uint, now time.Time) (DashboardLedgerRow, error) {
	result := DashboardLedgerRow{}
	base := func() *gorm.DB {
		return ledgerScope(r.db, retailerID, warehouseID)
	}

	if err := base().
		Where("transaction_type = ? AND order_id IS NOT NULL", constants.LedgerTxnTypeOrderRevenue).
		Distinct("order_id").
		Count(&result.TotalOrders).Error; err != nil {
		return result, err
	}
	var err error
	if result.TotalSales, err = sumMoney(base().Where("transaction_type = ?", constants.LedgerTxnTypeOrderRevenue), "amount"); err != nil {
		return result, err
	}

	unsettled := func(entryType string) *gorm.DB {
		return base().Where("entry_type = ? AND status <> ?", entryType, constants.LedgerStatusSettled)
	}
	if result.CreditRemaining, err = sumMoney(unsettled(constants.LedgerEntryTypeCredit), remainingExpr); err != nil {
		return result, err
	}
	if result.DebitRemaining, err = sumMoney(unsettled(constants.LedgerEntryTypeDebit), remainingExpr); err != nil {
		return result, err
	}
	if result.AvailableCredit, err = sumMoney(unsettled(constants.LedgerEntryTypeCredit).Where("trigger_date <= ?", now), remainingExpr); err != nil {
		return result, err
	}
	if result.PendingCredit, err = sumMoney(unsettled(constants.LedgerEntryTypeCredit).Where("trigger_date > ?", now), remainingExpr); err != nil {
		return result, err
	}
	return result, nil
}

// GetEarliestUnsettledCredit 获取最早一笔未结清贷记的可结算日期
func (r *GormDashboardRepository) GetEarliestUnsettledCredit(retailerID uint, warehouseID *uint) (*time.Time, error) {
	var entry models.LedgerEntry
	err := ledgerScope(r.db, retailerID, warehouseID).
		Where("entry_type = ? AND status <> ?", constants.LedgerEntryTypeCredit, constants.LedgerStatusSettled).
		Order("trigger_date asc").
		Order("id asc").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	triggerDate := entry.TriggerDate
	return &triggerDate, nil
}

// consumedItems 已完成结算中消耗了范围内条目的分配明细
func (r *GormDashboardRepository) consumedItems(retailerID uint, warehouseID *uint) *gorm.DB {
	return r.db.Model(&models.SettlementLedgerItem{}).
		Joins("JOIN settlements ON settlements.id = settlement_ledger_items.settlement_id").
		Where("settlements.status = ?", constants.SettlementStatusCompleted).
		Where("settlement_ledger_items.ledger_entry_id IN (?)", ledgerScope(r.db, retailerID, warehouseID).Select("id"))
}

// GetSettlementOverview 统计范围内条目的已结算金额与最近一次结算
// 不按结算记录自身的 warehouse_id 过滤：零售商级结算同样会消耗仓库条目
func (r *GormDashboardRepository) GetSettlementOverview(retailerID uint, warehouseID *uint) (DashboardSettlementRow, error) {
	result := DashboardSettlementRow{}
	total, err := sumMoney(r.consumedItems(retailerID, warehouseID), "settlement_ledger_items.allocated_amount")
	if err != nil {
		return result, err
	}
	result.SettledTotal = total

	var last models.Settlement
	err = r.db.Model(&models.Settlement{}).
		Where("id IN (?)", r.consumedItems(retailerID, warehouseID).Select("settlement_ledger_items.settlement_id")).
		Order("created_at desc").
		Order("id desc").
		First(&last).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return result, nil
		}
		return result, err
	}
	result.LastSettlement = &last
	return result, nil
}
