package service

import (
	"context"
	"strings"
	"time"

	"github.com/payout-ledger/internal/cache"
	"github.com/payout-ledger/internal/config"
	"github.com/payout-ledger/internal/constants"
	"github.com/payout-ledger/internal/logger"
	"github.com/payout-ledger/internal/metrics"
	"github.com/payout-ledger/internal/models"
	"github.com/payout-ledger/internal/repository"

	"github.com/shopspring/decimal"
)

// LedgerService 账本入账服务：订单入账、人工调账与流水查询
type LedgerService struct {
	repo    repository.LedgerRepository
	cfg     config.LedgerConfig
	metrics *metrics.LedgerMetrics
	now     func() time.Time
}

// NewLedgerService 创建账本服务
func NewLedgerService(repo repository.LedgerRepository, cfg config.LedgerConfig, ledgerMetrics *metrics.LedgerMetrics) *LedgerService {
	return &LedgerService{
		repo:    repo,
		cfg:     cfg,
		metrics: ledgerMetrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// OrderLedgerItem 订单项入账数据
type OrderLedgerItem struct {
	OrderItemID uint          `json:"order_item_id"`
	RetailerID  uint          `json:"retailer_id"`
	WarehouseID uint          `json:"warehouse_id"`
	Amount      models.Money  `json:"amount"`
	PlatformFee *models.Money `json:"platform_fee,omitempty"`
}

// OrderLedgerEvent 订单进入收入确认状态（如已送达）时的入账事件
type OrderLedgerEvent struct {
	OrderID     uint              `json:"order_id"`
	OrderNo     string            `json:"order_no,omitempty"`
	TriggerDate *time.Time        `json:"trigger_date,omitempty"`
	Items       []OrderLedgerItem `json:"items"`
}

// PostOrderLedgerResult 订单入账结果
type PostOrderLedgerResult struct {
	Entries             []models.LedgerEntry `json:"entries"`
	SkippedOrderItemIDs []uint               `json:"skipped_order_item_ids"`
}

// ManualAdjustmentInput 人工调账参数
type ManualAdjustmentInput struct {
	RetailerID  uint
	WarehouseID *uint
	Amount      models.Money
	EntryType   string
	AdminID     uint
	Note        string
}

// ValidateOrderLedgerEvent 校验订单入账事件结构与金额
func ValidateOrderLedgerEvent(event OrderLedgerEvent) error {
	if event.OrderID == 0 || len(event.Items) == 0 {
		return ErrInvalidOrderEvent
	}
	seen := make(map[uint]struct{}, len(event.Items))
	for _, item := range event.Items {
		if item.OrderItemID == 0 || item.RetailerID == 0 || item.WarehouseID == 0 {
			return ErrInvalidOrderEvent
		}
		if _, ok := seen[item.OrderItemID]; ok {
			return ErrInvalidOrderEvent
		}
		seen[item.OrderItemID] = struct{}{}
		if item.Amount.ExceedsScale() {
			return ErrAmountPrecision
		}
		if item.Amount.Decimal.Sign() <= 0 {
			return ErrInvalidAmount
		}
		if item.PlatformFee != nil {
			if item.PlatformFee.ExceedsScale() {
				return ErrAmountPrecision
			}
			if item.PlatformFee.Decimal.IsNegative() {
				return ErrInvalidAmount
			}
			if item.PlatformFee.Decimal.GreaterThan(item.Amount.Decimal) {
				return ErrPlatformFeeExceedsSum
			}
		}
	}
	return nil
}

// platformFeeFor 计算订单项平台费：显式传入优先，否则按配置费率
func (s *LedgerService) platformFeeFor(item OrderLedgerItem) models.Money {
	if item.PlatformFee != nil {
		return models.NewMoneyFromDecimal(item.PlatformFee.Decimal)
	}
	rate := s.cfg.FeeRate()
	if rate.Sign() <= 0 {
		return models.Money{}
	}
	return models.NewMoneyFromDecimal(item.Amount.Decimal.Mul(rate).Div(decimal.NewFromInt(100)))
}

// PostOrderLedgerEntries 为订单生成收入贷记与平台费借记，同一事件的条目共享 trigger_date 并整体写入
// 已入账的订单项会被跳过，重复投递安全
func (s *LedgerService) PostOrderLedgerEntries(ctx context.Context, event OrderLedgerEvent) (*PostOrderLedgerResult, error) {
	if err := ValidateOrderLedgerEvent(event); err != nil {
		return nil, err
	}
	log := logger.Ctx(ctx).With("order_id", event.OrderID, "order_no", event.OrderNo)

	itemIDs := make([]uint, 0, len(event.Items))
	for _, item := range event.Items {
		itemIDs = append(itemIDs, item.OrderItemID)
	}
	posted, err := s.repo.ListPostedOrderItemIDs(itemIDs, constants.LedgerTxnTypeOrderRevenue)
	if err != nil {
		return nil, wrapStoreError(err)
	}
	postedSet := make(map[uint]struct{}, len(posted))
	for _, id := range posted {
		postedSet[id] = struct{}{}
	}

	triggerDate := s.now().Add(s.cfg.TriggerDelay())
	if event.TriggerDate != nil && !event.TriggerDate.IsZero() {
		triggerDate = event.TriggerDate.UTC()
	}

	result := &PostOrderLedgerResult{
		Entries:             make([]models.LedgerEntry, 0, len(event.Items)*2),
		SkippedOrderItemIDs: make([]uint, 0),
	}
	revenueCount, feeCount := 0, 0
	touchedRetailers := make(map[uint]struct{})
	for _, item := range event.Items {
		if _, ok := postedSet[item.OrderItemID]; ok {
			result.SkippedOrderItemIDs = append(result.SkippedOrderItemIDs, item.OrderItemID)
			continue
		}
		orderID := event.OrderID
		orderItemID := item.OrderItemID
		warehouseID := item.WarehouseID
		result.Entries = append(result.Entries, models.LedgerEntry{
			RetailerID:      item.RetailerID,
			WarehouseID:     &warehouseID,
			OrderID:         &orderID,
			OrderItemID:     &orderItemID,
			Amount:          models.NewMoneyFromDecimal(item.Amount.Decimal),
			TransactionType: constants.LedgerTxnTypeOrderRevenue,
			EntryType:       constants.LedgerEntryTypeCredit,
			Status:          constants.LedgerStatusAvailable,
			TriggerDate:     triggerDate,
			Note:            strings.TrimSpace(event.OrderNo),
		})
		revenueCount++
		touchedRetailers[item.RetailerID] = struct{}{}

		fee := s.platformFeeFor(item)
		if fee.Decimal.Sign() <= 0 {
			continue
		}
		result.Entries = append(result.Entries, models.LedgerEntry{
			RetailerID:      item.RetailerID,
			WarehouseID:     &warehouseID,
			OrderID:         &orderID,
			OrderItemID:     &orderItemID,
			Amount:          fee,
			TransactionType: constants.LedgerTxnTypePlatformFee,
			EntryType:       constants.LedgerEntryTypeDebit,
			Status:          constants.LedgerStatusAvailable,
			TriggerDate:     triggerDate,
			Note:            strings.TrimSpace(event.OrderNo),
		})
		feeCount++
	}

	if len(result.Entries) == 0 {
		log.Infow("ledger_order_entries_skipped", "skipped", len(result.SkippedOrderItemIDs))
		return result, nil
	}
	if err := s.repo.CreateEntries(result.Entries); err != nil {
		log.Errorw("ledger_order_entries_failed", "error", err)
		return nil, wrapStoreError(err)
	}

	s.metrics.AddEntriesPosted(constants.LedgerTxnTypeOrderRevenue, revenueCount)
	s.metrics.AddEntriesPosted(constants.LedgerTxnTypePlatformFee, feeCount)
	for retailerID := range touchedRetailers {
		if cacheErr := cache.InvalidateDashboardSummary(ctx, retailerID); cacheErr != nil {
			log.Warnw("dashboard_cache_invalidate_failed", "retailer_id", retailerID, "error", cacheErr)
		}
	}
	log.Infow("ledger_order_entries_posted",
		"entries", len(result.Entries),
		"skipped", len(result.SkippedOrderItemIDs),
		"trigger_date", triggerDate,
	)
	return result, nil
}

// CreateManualAdjustment 写入一条人工调账条目，立即参与下一次 FIFO 结算
// 金额为绝对值且必须大于 0，方向由 EntryType 决定；借记可以使余额为负
func (s *LedgerService) CreateManualAdjustment(ctx context.Context, input ManualAdjustmentInput) (*models.LedgerEntry, error) {
	if input.RetailerID == 0 {
		return nil, ErrInvalidRetailer
	}
	if input.AdminID == 0 {
		return nil, ErrInvalidAdmin
	}
	if input.Amount.ExceedsScale() {
		return nil, ErrAmountPrecision
	}
	amount := input.Amount.Decimal
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	entryType := strings.ToUpper(strings.TrimSpace(input.EntryType))
	var txnType string
	switch entryType {
	case constants.LedgerEntryTypeCredit:
		txnType = constants.LedgerTxnTypeManualCredit
	case constants.LedgerEntryTypeDebit:
		txnType = constants.LedgerTxnTypeManualDebit
	default:
		return nil, ErrInvalidEntryType
	}

	adminID := input.AdminID
	entry := models.LedgerEntry{
		RetailerID:      input.RetailerID,
		WarehouseID:     input.WarehouseID,
		Amount:          models.NewMoneyFromDecimal(amount),
		TransactionType: txnType,
		EntryType:       entryType,
		Status:          constants.LedgerStatusAvailable,
		TriggerDate:     s.now(),
		AdminID:         &adminID,
		Note:            strings.TrimSpace(input.Note),
	}
	entries := []models.LedgerEntry{entry}
	if err := s.repo.CreateEntries(entries); err != nil {
		logger.Ctx(ctx).Errorw("ledger_manual_adjustment_failed", "retailer_id", input.RetailerID, "error", err)
		return nil, wrapStoreError(err)
	}
	created := entries[0]

	s.metrics.AddEntriesPosted(txnType, 1)
	if cacheErr := cache.InvalidateDashboardSummary(ctx, input.RetailerID); cacheErr != nil {
		logger.Ctx(ctx).Warnw("dashboard_cache_invalidate_failed", "retailer_id", input.RetailerID, "error", cacheErr)
	}
	logger.CtxWith(ctx, "admin_id", input.AdminID).Infow("ledger_manual_adjustment_created",
		"entry_id", created.ID,
		"retailer_id", created.RetailerID,
		"entry_type", created.EntryType,
		"amount", created.Amount.String(),
	)
	return &created, nil
}

// ListHistory 分页查询账本流水（新到旧）
func (s *LedgerService) ListHistory(filter repository.LedgerEntryListFilter) ([]models.LedgerEntry, int64, error) {
	filter.Status = strings.ToUpper(strings.TrimSpace(filter.Status))
	filter.TransactionType = strings.ToUpper(strings.TrimSpace(filter.TransactionType))
	filter.EntryType = strings.ToUpper(strings.TrimSpace(filter.EntryType))
	if filter.Status != "" && !isLedgerStatus(filter.Status) {
		return nil, 0, ErrInvalidStatus
	}
	if filter.TransactionType != "" && !isLedgerTxnType(filter.TransactionType) {
		return nil, 0, ErrInvalidTxnType
	}
	if filter.EntryType != "" && !isLedgerEntryType(filter.EntryType) {
		return nil, 0, ErrInvalidEntryType
	}
	if filter.CreatedFrom != nil && filter.CreatedTo != nil && filter.CreatedFrom.After(*filter.CreatedTo) {
		return nil, 0, ErrInvalidDateRange
	}
	rows, total, err := s.repo.ListHistory(filter)
	if err != nil {
		return nil, 0, wrapStoreError(err)
	}
	return rows, total, nil
}

// GetEntry 获取单条账本条目
func (s *LedgerService) GetEntry(id uint) (*models.LedgerEntry, error) {
	entry, err := s.repo.GetByID(id)
	if err != nil {
		return nil, wrapStoreError(err)
	}
	if entry == nil {
		return nil, ErrLedgerEntryNotFound
	}
	return entry, nil
}

func isLedgerStatus(status string) bool {
	switch status {
	case constants.LedgerStatusAvailable, constants.LedgerStatusPartiallySettled, constants.LedgerStatusSettled:
		return true
	default:
		return false
	}
}

func isLedgerTxnType(txnType string) bool {
	switch txnType {
	case constants.LedgerTxnTypeOrderRevenue, constants.LedgerTxnTypePlatformFee,
		constants.LedgerTxnTypeManualCredit, constants.LedgerTxnTypeManualDebit:
		return true
	default:
		return false
	}
}

func isLedgerEntryType(entryType string) bool {
	return entryType == constants.LedgerEntryTypeCredit || entryType == constants.LedgerEntryTypeDebit
}
