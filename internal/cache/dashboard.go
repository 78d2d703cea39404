package cache

import (
	"context"
	"fmt"
	"time"
)

// 看板缓存按零售商聚合为一个哈希，字段为仓库维度，写入账本时整体失效
func dashboardSummaryKey(retailerID uint) string {
	return fmt.Sprintf("dashboard:summary:%d", retailerID)
}

func dashboardSummaryField(warehouseID *uint) string {
	if warehouseID == nil {
		return "all"
	}
	return fmt.Sprintf("wh:%d", *warehouseID)
}

// GetDashboardSummary 读取看板缓存
func GetDashboardSummary(ctx context.Context, retailerID uint, warehouseID *uint, dest interface{}) (bool, error) {
	return GetHashJSON(ctx, dashboardSummaryKey(retailerID), dashboardSummaryField(warehouseID), dest)
}

// SetDashboardSummary 写入看板缓存
func SetDashboardSummary(ctx context.Context, retailerID uint, warehouseID *uint, value interface{}, ttl time.Duration) error {
	return SetHashJSON(ctx, dashboardSummaryKey(retailerID), dashboardSummaryField(warehouseID), value, ttl)
}

// InvalidateDashboardSummary 清除零售商全部看板缓存
func InvalidateDashboardSummary(ctx context.Context, retailerID uint) error {
	return Del(ctx, dashboardSummaryKey(retailerID))
}
