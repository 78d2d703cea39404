package service

import (
	"context"
	"time"

	"github.com/payout-ledger/internal/cache"
	"github.com/payout-ledger/internal/config"
	"github.com/payout-ledger/internal/logger"
	"github.com/payout-ledger/internal/models"
	"github.com/payout-ledger/internal/repository"
)

// DashboardService 零售商结算看板
type DashboardService struct {
	repo          repository.DashboardRepository
	settlementCfg config.SettlementConfig
	cacheTTL      time.Duration
	now           func() time.Time
}

// NewDashboardService 创建看板服务
func NewDashboardService(
	repo repository.DashboardRepository,
	settlementCfg config.SettlementConfig,
	dashboardCfg config.DashboardConfig,
) *DashboardService {
	return &DashboardService{
		repo:          repo,
		settlementCfg: settlementCfg,
		cacheTTL:      dashboardCfg.CacheTTL(),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// DashboardQueryInput 看板查询参数
type DashboardQueryInput struct {
	RetailerID   uint
	WarehouseID  *uint
	ForceRefresh bool
}

// DashboardSummary 看板汇总
type DashboardSummary struct {
	RetailerID         uint         `json:"retailer_id"`
	WarehouseID        *uint        `json:"warehouse_id,omitempty"`
	TotalOrders        int64        `json:"total_orders"`
	TotalSales         models.Money `json:"total_sales"`
	UnsettledBalance   models.Money `json:"unsettled_balance"`
	AvailableBalance   models.Money `json:"available_balance"`
	PendingBalance     models.Money `json:"pending_balance"`
	SettledTotal       models.Money `json:"settled_total"`
	LastSettlementDate *time.Time   `json:"last_settlement_date"`
	NextSettlementDate *time.Time   `json:"next_settlement_date"`
}

// GetSummary 获取看板汇总，只读，不参与结算事务
func (s *DashboardService) GetSummary(ctx context.Context, input DashboardQueryInput) (*DashboardSummary, error) {
	if input.RetailerID == 0 {
		return nil, ErrInvalidRetailer
	}
	if !input.ForceRefresh {
		var cached DashboardSummary
		hit, cacheErr := cache.GetDashboardSummary(ctx, input.RetailerID, input.WarehouseID, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	now := s.now()
	row, err := s.repo.GetLedgerOverview(input.RetailerID, input.WarehouseID, now)
	if err != nil {
		return nil, wrapStoreError(err)
	}
	settled, err := s.repo.GetSettlementOverview(input.RetailerID, input.WarehouseID)
	if err != nil {
		return nil, wrapStoreError(err)
	}

	summary := &DashboardSummary{
		RetailerID:       input.RetailerID,
		WarehouseID:      input.WarehouseID,
		TotalOrders:      row.TotalOrders,
		TotalSales:       row.TotalSales,
		UnsettledBalance: models.NewMoneyFromDecimal(row.CreditRemaining.Decimal.Sub(row.DebitRemaining.Decimal)),
		AvailableBalance: row.AvailableCredit,
		PendingBalance:   row.PendingCredit,
		SettledTotal:     settled.SettledTotal,
	}

	cycle := s.settlementCfg.Cycle()
	if last := settled.LastSettlement; last != nil {
		lastAt := last.CreatedAt.UTC()
		next := lastAt.Add(cycle)
		summary.LastSettlementDate = &lastAt
		summary.NextSettlementDate = &next
	} else {
		earliest, err := s.repo.GetEarliestUnsettledCredit(input.RetailerID, input.WarehouseID)
		if err != nil {
			return nil, wrapStoreError(err)
		}
		if earliest != nil {
			next := earliest.UTC().Add(cycle)
			summary.NextSettlementDate = &next
		}
	}

	if cacheErr := cache.SetDashboardSummary(ctx, input.RetailerID, input.WarehouseID, summary, s.cacheTTL); cacheErr != nil {
		logger.Ctx(ctx).Debugw("dashboard_cache_set_failed", "retailer_id", input.RetailerID, "error", cacheErr)
	}
	return summary, nil
}
