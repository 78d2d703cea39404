package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/payout-ledger/internal/cache"
	"github.com/payout-ledger/internal/config"
	"github.com/payout-ledger/internal/constants"
	"github.com/payout-ledger/internal/logger"
	"github.com/payout-ledger/internal/metrics"
	"github.com/payout-ledger/internal/models"
	"github.com/payout-ledger/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SettlementService 结算编排服务
// 读取可结算条目、FIFO 分配、写入结算与条目更新在同一个数据库事务内完成
type SettlementService struct {
	ledgerRepo     repository.LedgerRepository
	settlementRepo repository.SettlementRepository
	cfg            config.SettlementConfig
	metrics        *metrics.LedgerMetrics
	now            func() time.Time
}

// NewSettlementService 创建结算服务
func NewSettlementService(
	ledgerRepo repository.LedgerRepository,
	settlementRepo repository.SettlementRepository,
	cfg config.SettlementConfig,
	ledgerMetrics *metrics.LedgerMetrics,
) *SettlementService {
	return &SettlementService{
		ledgerRepo:     ledgerRepo,
		settlementRepo: settlementRepo,
		cfg:            cfg,
		metrics:        ledgerMetrics,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// ExecuteSettlementInput 执行结算参数
type ExecuteSettlementInput struct {
	RetailerID  uint
	WarehouseID *uint
	Amount      models.Money
	AdminID     uint
	Note        string
}

// SettlementPreview 结算试算结果
type SettlementPreview struct {
	RetailerID  uint             `json:"retailer_id"`
	WarehouseID *uint            `json:"warehouse_id,omitempty"`
	Requested   models.Money     `json:"requested"`
	Sufficient  bool             `json:"sufficient"`
	Shortfall   models.Money     `json:"shortfall"`
	Result      AllocationResult `json:"result"`
}

func validateSettlementInput(input ExecuteSettlementInput, requireAdmin bool) error {
	if input.RetailerID == 0 {
		return ErrInvalidRetailer
	}
	if requireAdmin && input.AdminID == 0 {
		return ErrInvalidAdmin
	}
	if input.Amount.ExceedsScale() {
		return ErrAmountPrecision
	}
	if input.Amount.Decimal.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ExecuteSettlement 执行一次 FIFO 结算
// 余额不足时返回 *InsufficientLedgerBalanceError 且不产生任何写入；并发冲突返回 ErrConcurrentSettlementConflict，由调用方决定是否重试
func (s *SettlementService) ExecuteSettlement(ctx context.Context, input ExecuteSettlementInput) (*models.Settlement, error) {
	if err := validateSettlementInput(input, true); err != nil {
		return nil, err
	}
	start := time.Now()
	amount := models.NewMoneyFromDecimal(input.Amount.Decimal)
	log := logger.CtxWith(ctx,
		"retailer_id", input.RetailerID,
		"warehouse_id", input.WarehouseID,
		"amount", amount.String(),
		"admin_id", input.AdminID,
	)

	lockKey := repository.SettlementLockKey(input.RetailerID, input.WarehouseID)
	lock, err := cache.TryLock(ctx, lockKey, s.cfg.LockTTL())
	if err != nil {
		if errors.Is(err, cache.ErrLockHeld) {
			log.Warnw("settlement_conflict", "reason", "lock_held")
			s.observe(constants.SettlementResultConflict, start, 0)
			return nil, ErrConcurrentSettlementConflict
		}
		// 事务内的咨询锁与 CAS 才是最终保障，Redis 不可用时继续执行
		log.Warnw("settlement_lock_unavailable", "error", err)
	}
	defer func() {
		if releaseErr := lock.Release(context.Background()); releaseErr != nil {
			log.Warnw("settlement_lock_release_failed", "error", releaseErr)
		}
	}()

	var settlement *models.Settlement
	err = s.ledgerRepo.Transaction(func(tx *gorm.DB) error {
		ledgerTx := s.ledgerRepo.WithTx(tx)
		settlementTx := s.settlementRepo.WithTx(tx)

		if err := ledgerTx.LockSettlementKey(input.RetailerID, input.WarehouseID); err != nil {
			return err
		}

		now := s.now()
		entries, err := ledgerTx.GetAvailableForUpdate(repository.AvailableEntryQuery{
			RetailerID:  input.RetailerID,
			WarehouseID: input.WarehouseID,
			EligibleAt:  &now,
		})
		if err != nil {
			return err
		}

		result := AllocateFIFO(amount, entries)
		if !result.Sufficient() {
			return &InsufficientLedgerBalanceError{
				Requested: amount,
				Available: result.AllocatedTotal,
				Shortfall: result.Remainder,
			}
		}

		record := &models.Settlement{
			RetailerID:  input.RetailerID,
			WarehouseID: input.WarehouseID,
			Amount:      result.AllocatedTotal,
			Status:      constants.SettlementStatusCompleted,
			AdminID:     input.AdminID,
			Note:        strings.TrimSpace(input.Note),
			CreatedAt:   now,
		}
		items := make([]models.SettlementLedgerItem, 0, len(result.Allocations))
		for _, allocation := range result.Allocations {
			items = append(items, models.SettlementLedgerItem{
				LedgerEntryID:   allocation.EntryID,
				AllocatedAmount: allocation.Amount,
				CreatedAt:       now,
			})
		}
		if err := settlementTx.Create(record, items); err != nil {
			return err
		}

		for _, allocation := range result.Allocations {
			applied, err := ledgerTx.ApplySettledAmount(repository.SettledAmountPatch{
				EntryID:         allocation.EntryID,
				ExpectedSettled: allocation.PrevSettled,
				NewSettled:      allocation.NewSettled,
				Status:          allocation.NewStatus,
				SettledAt:       now,
			})
			if err != nil {
				return err
			}
			if !applied {
				return ErrConcurrentSettlementConflict
			}
		}
		settlement = record
		return nil
	})
	if err != nil {
		return nil, s.handleExecuteError(log, start, err)
	}

	if cacheErr := cache.InvalidateDashboardSummary(ctx, input.RetailerID); cacheErr != nil {
		log.Warnw("dashboard_cache_invalidate_failed", "error", cacheErr)
	}
	s.observe(constants.SettlementResultCompleted, start, settlement.Amount.Float64())
	log.Infow("settlement_executed",
		"settlement_id", settlement.ID,
		"entries", len(settlement.Items),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return settlement, nil
}

func (s *SettlementService) handleExecuteError(log *zap.SugaredLogger, start time.Time, err error) error {
	var insufficient *InsufficientLedgerBalanceError
	switch {
	case errors.As(err, &insufficient):
		log.Warnw("settlement_insufficient_balance",
			"available", insufficient.Available.String(),
			"shortfall", insufficient.Shortfall.String(),
		)
		s.observe(constants.SettlementResultInsufficient, start, 0)
		return insufficient
	case errors.Is(err, ErrConcurrentSettlementConflict) || isWriteConflict(err):
		log.Warnw("settlement_conflict", "reason", "write_conflict", "error", err)
		s.observe(constants.SettlementResultConflict, start, 0)
		return ErrConcurrentSettlementConflict
	default:
		log.Errorw("settlement_failed", "error", err)
		s.observe(constants.SettlementResultError, start, 0)
		return wrapStoreError(err)
	}
}

// PreviewSettlement 试算结算，不加锁、不写入
func (s *SettlementService) PreviewSettlement(ctx context.Context, input ExecuteSettlementInput) (*SettlementPreview, error) {
	if err := validateSettlementInput(input, false); err != nil {
		return nil, err
	}
	amount := models.NewMoneyFromDecimal(input.Amount.Decimal)
	now := s.now()
	entries, err := s.ledgerRepo.GetAvailable(repository.AvailableEntryQuery{
		RetailerID:  input.RetailerID,
		WarehouseID: input.WarehouseID,
		EligibleAt:  &now,
	})
	if err != nil {
		return nil, wrapStoreError(err)
	}
	result := AllocateFIFO(amount, entries)
	logger.Ctx(ctx).Debugw("settlement_previewed",
		"retailer_id", input.RetailerID,
		"amount", amount.String(),
		"sufficient", result.Sufficient(),
	)
	return &SettlementPreview{
		RetailerID:  input.RetailerID,
		WarehouseID: input.WarehouseID,
		Requested:   amount,
		Sufficient:  result.Sufficient(),
		Shortfall:   result.Remainder,
		Result:      result,
	}, nil
}

// ListSettlements 分页查询结算记录
func (s *SettlementService) ListSettlements(filter repository.SettlementListFilter) ([]models.Settlement, int64, error) {
	if filter.Status != "" && !isSettlementStatus(filter.Status) {
		return nil, 0, ErrInvalidStatus
	}
	if filter.CreatedFrom != nil && filter.CreatedTo != nil && filter.CreatedFrom.After(*filter.CreatedTo) {
		return nil, 0, ErrInvalidDateRange
	}
	rows, total, err := s.settlementRepo.List(filter)
	if err != nil {
		return nil, 0, wrapStoreError(err)
	}
	return rows, total, nil
}

// GetSettlementDetail 获取结算详情；传入 retailerID 时仅返回该零售商的结算
func (s *SettlementService) GetSettlementDetail(id uint, retailerID *uint) (*models.Settlement, error) {
	if id == 0 {
		return nil, ErrSettlementNotFound
	}
	settlement, err := s.settlementRepo.GetByID(id)
	if err != nil {
		return nil, wrapStoreError(err)
	}
	if settlement == nil {
		return nil, ErrSettlementNotFound
	}
	if retailerID != nil && *retailerID != settlement.RetailerID {
		return nil, ErrSettlementNotFound
	}
	return settlement, nil
}

func (s *SettlementService) observe(result string, start time.Time, amount float64) {
	s.metrics.ObserveSettlement(result, time.Since(start), amount)
}

func isSettlementStatus(status string) bool {
	switch status {
	case constants.SettlementStatusCompleted, constants.SettlementStatusFailed:
		return true
	default:
		return false
	}
}

// isWriteConflict 识别数据库层面的写冲突（死锁、序列化失败、sqlite 忙）
func isWriteConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"deadlock detected",
		"could not serialize access",
		"sqlstate 40001",
		"sqlstate 40p01",
		"database is locked",
		"database table is locked",
		"sqlite_busy",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
