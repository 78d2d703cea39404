package repository

import (
	"errors"
	"time"

	"github.com/payout-ledger/internal/constants"
	"github.com/payout-ledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository 账本数据访问接口
type LedgerRepository interface {
	CreateEntries(entries []models.LedgerEntry) error
	GetByID(id uint) (*models.LedgerEntry, error)
	GetByIDs(ids []uint) ([]models.LedgerEntry, error)
	GetAvailable(query AvailableEntryQuery) ([]models.LedgerEntry, error)
	GetAvailableForUpdate(query AvailableEntryQuery) ([]models.LedgerEntry, error)
	ListHistory(filter LedgerEntryListFilter) ([]models.LedgerEntry, int64, error)
	ListPostedOrderItemIDs(orderItemIDs []uint, transactionType string) ([]uint, error)
	ApplySettledAmount(patch SettledAmountPatch) (bool, error)
	LockSettlementKey(retailerID uint, warehouseID *uint) error
	WithTx(tx *gorm.DB) *GormLedgerRepository
	Transaction(fn func(tx *gorm.DB) error) error
}

// GormLedgerRepository GORM 账本仓储实现
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository 创建账本仓储
func NewLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLedgerRepository) WithTx(tx *gorm.DB) *GormLedgerRepository {
	if tx == nil {
		return r
	}
	return &GormLedgerRepository{db: tx}
}

// Transaction 执行事务
func (r *GormLedgerRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// CreateEntries 批量写入条目，全部成功或全部失败
func (r *GormLedgerRepository) CreateEntries(entries []models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&entries).Error
	})
}

// GetByID 按 ID 获取条目
func (r *GormLedgerRepository) GetByID(id uint) (*models.LedgerEntry, error) {
	if id == 0 {
		return nil, nil
	}
	var entry models.LedgerEntry
	if err := r.db.First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// GetByIDs 批量获取条目（按 ID 升序）
func (r *GormLedgerRepository) GetByIDs(ids []uint) ([]models.LedgerEntry, error) {
	if len(ids) == 0 {
		return []models.LedgerEntry{}, nil
	}
	var entries []models.LedgerEntry
	if err := r.db.Where("id IN ?", ids).Order("id asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// GetAvailable 返回未结清条目，按 trigger_date 升序、id 升序（FIFO 顺序）
func (r *GormLedgerRepository) GetAvailable(query AvailableEntryQuery) ([]models.LedgerEntry, error) {
	return r.findAvailable(r.db, query)
}

// GetAvailableForUpdate 同 GetAvailable，并对命中行加行锁（需在事务内调用）
func (r *GormLedgerRepository) GetAvailableForUpdate(query AvailableEntryQuery) ([]models.LedgerEntry, error) {
	return r.findAvailable(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), query)
}

func (r *GormLedgerRepository) findAvailable(db *gorm.DB, query AvailableEntryQuery) ([]models.LedgerEntry, error) {
	if query.RetailerID == 0 {
		return []models.LedgerEntry{}, nil
	}
	q := db.Model(&models.LedgerEntry{}).
		Where("retailer_id = ?", query.RetailerID).
		Where("status IN ?", []string{constants.LedgerStatusAvailable, constants.LedgerStatusPartiallySettled})
	if query.WarehouseID != nil {
		q = q.Where("(warehouse_id = ? OR warehouse_id IS NULL)", *query.WarehouseID)
	}
	if query.EligibleAt != nil {
		q = q.Where("trigger_date <= ?", *query.EligibleAt)
	}
	var entries []models.LedgerEntry
	if err := q.Order("trigger_date asc").Order("id asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListHistory 分页查询账本流水（新到旧）
func (r *GormLedgerRepository) ListHistory(filter LedgerEntryListFilter) ([]models.LedgerEntry, int64, error) {
	query := r.db.Model(&models.LedgerEntry{})
	if filter.RetailerID != 0 {
		query = query.Where("retailer_id = ?", filter.RetailerID)
	}
	if filter.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.TransactionType != "" {
		query = query.Where("transaction_type = ?", filter.TransactionType)
	}
	if filter.EntryType != "" {
		query = query.Where("entry_type = ?", filter.EntryType)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	var entries []models.LedgerEntry
	if err := query.Order("created_at desc").Order("id desc").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListPostedOrderItemIDs 返回已入账的订单项ID（用于幂等判断）
func (r *GormLedgerRepository) ListPostedOrderItemIDs(orderItemIDs []uint, transactionType string) ([]uint, error) {
	if len(orderItemIDs) == 0 {
		return []uint{}, nil
	}
	var posted []uint
	if err := r.db.Model(&models.LedgerEntry{}).
		Where("order_item_id IN ? AND transaction_type = ?", orderItemIDs, transactionType).
		Pluck("order_item_id", &posted).Error; err != nil {
		return nil, err
	}
	return posted, nil
}

// ApplySettledAmount 以 CAS 方式更新已结算金额，返回是否命中
// settled_amount 与读取时不一致（被并发结算修改）时不更新并返回 false
func (r *GormLedgerRepository) ApplySettledAmount(patch SettledAmountPatch) (bool, error) {
	if patch.EntryID == 0 {
		return false, nil
	}
	settledAt := patch.SettledAt
	if settledAt.IsZero() {
		settledAt = time.Now().UTC()
	}
	result := r.db.Model(&models.LedgerEntry{}).
		Where("id = ? AND settled_amount = ?", patch.EntryID, patch.ExpectedSettled).
		Where("status <> ?", constants.LedgerStatusSettled).
		Updates(map[string]interface{}{
			"settled_amount":  patch.NewSettled,
			"status":          patch.Status,
			"last_settled_at": settledAt,
			"updated_at":      settledAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// LockSettlementKey 获取零售商/仓库维度的事务级串行锁
func (r *GormLedgerRepository) LockSettlementKey(retailerID uint, warehouseID *uint) error {
	return acquireAdvisoryXactLock(r.db, SettlementLockKey(retailerID, warehouseID))
}
