package repository

import (
	"errors"

	"github.com/payout-ledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettlementRepository 结算数据访问接口
type SettlementRepository interface {
	Create(settlement *models.Settlement, items []models.SettlementLedgerItem) error
	GetByID(id uint) (*models.Settlement, error)
	List(filter SettlementListFilter) ([]models.Settlement, int64, error)
	SumAllocatedByEntry(entryIDs []uint) (map[uint]models.Money, error)
	WithTx(tx *gorm.DB) *GormSettlementRepository
}

// GormSettlementRepository GORM 结算仓储实现
type GormSettlementRepository struct {
	db *gorm.DB
}

// NewSettlementRepository 创建结算仓储
func NewSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSettlementRepository) WithTx(tx *gorm.DB) *GormSettlementRepository {
	if tx == nil {
		return r
	}
	return &GormSettlementRepository{db: tx}
}

// Create 写入结算及其分配明细
func (r *GormSettlementRepository) Create(settlement *models.Settlement, items []models.SettlementLedgerItem) error {
	if settlement == nil {
		return errors.New("settlement is nil")
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(settlement).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].SettlementID = settlement.ID
		}
		if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
			return err
		}
		settlement.Items = items
		return nil
	})
}

// GetByID 获取结算详情（含分配明细与对应条目）
func (r *GormSettlementRepository) GetByID(id uint) (*models.Settlement, error) {
	if id == 0 {
		return nil, nil
	}
	var settlement models.Settlement
	err := r.db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Items.LedgerEntry").
		First(&settlement, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settlement, nil
}

// List 分页查询结算记录
func (r *GormSettlementRepository) List(filter SettlementListFilter) ([]models.Settlement, int64, error) {
	query := r.db.Model(&models.Settlement{})
	if filter.RetailerID != 0 {
		query = query.Where("retailer_id = ?", filter.RetailerID)
	}
	if filter.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
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
	var settlements []models.Settlement
	if err := query.Order("id desc").Find(&settlements).Error; err != nil {
		return nil, 0, err
	}
	return settlements, total, nil
}

// SumAllocatedByEntry 汇总每个条目被各结算分配的金额
func (r *GormSettlementRepository) SumAllocatedByEntry(entryIDs []uint) (map[uint]models.Money, error) {
	result := make(map[uint]models.Money, len(entryIDs))
	if len(entryIDs) == 0 {
		return result, nil
	}
	var items []models.SettlementLedgerItem
	if err := r.db.Where("ledger_entry_id IN ?", entryIDs).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, item := range items {
		current := result[item.LedgerEntryID]
		result[item.LedgerEntryID] = models.NewMoneyFromDecimal(current.Decimal.Add(item.AllocatedAmount.Decimal))
	}
	return result, nil
}
