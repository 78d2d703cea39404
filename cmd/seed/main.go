package main

import (
	"context"
	"os"
	"time"

	"github.com/payout-ledger/internal/config"
	"github.com/payout-ledger/internal/logger"
	"github.com/payout-ledger/internal/models"
	"github.com/payout-ledger/internal/provider"
	"github.com/payout-ledger/internal/service"

	"github.com/shopspring/decimal"
)

type demoOrder struct {
	orderID    uint
	orderNo    string
	retailerID uint
	warehouse  uint
	amounts    []string
	daysAgo    int
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	if err := models.InitDefaultAdmin(models.DB, os.Getenv("PL_DEFAULT_ADMIN_USERNAME"), os.Getenv("PL_DEFAULT_ADMIN_PASSWORD")); err != nil {
		stdLog.Fatalf("Failed to create default admin: %v", err)
	}

	container, err := provider.NewContainerWithDB(cfg, models.DB)
	if err != nil {
		stdLog.Fatalf("Failed to build container: %v", err)
	}

	// 两个零售商，触发日期错开，部分尚未到期
	orders := []demoOrder{
		{orderID: 1001, orderNo: "DEMO-1001", retailerID: 1, warehouse: 1, amounts: []string{"120.00", "35.50"}, daysAgo: 21},
		{orderID: 1002, orderNo: "DEMO-1002", retailerID: 1, warehouse: 2, amounts: []string{"89.90"}, daysAgo: 14},
		{orderID: 1003, orderNo: "DEMO-1003", retailerID: 1, warehouse: 1, amounts: []string{"240.00"}, daysAgo: 3},
		{orderID: 1004, orderNo: "DEMO-1004", retailerID: 1, warehouse: 1, amounts: []string{"60.00"}, daysAgo: -2},
		{orderID: 2001, orderNo: "DEMO-2001", retailerID: 2, warehouse: 5, amounts: []string{"15.00", "15.00", "42.00"}, daysAgo: 10},
		{orderID: 2002, orderNo: "DEMO-2002", retailerID: 2, warehouse: 5, amounts: []string{"300.00"}, daysAgo: 1},
	}

	ctx := context.Background()
	itemID := uint(1)
	for _, order := range orders {
		trigger := time.Now().UTC().AddDate(0, 0, -order.daysAgo)
		event := service.OrderLedgerEvent{
			OrderID:     order.orderID,
			OrderNo:     order.orderNo,
			TriggerDate: &trigger,
		}
		for _, raw := range order.amounts {
			event.Items = append(event.Items, service.OrderLedgerItem{
				OrderItemID: order.orderID*100 + itemID,
				RetailerID:  order.retailerID,
				WarehouseID: order.warehouse,
				Amount:      models.NewMoneyFromDecimal(decimal.RequireFromString(raw)),
			})
			itemID++
		}
		result, err := container.LedgerService.PostOrderLedgerEntries(ctx, event)
		if err != nil {
			stdLog.Printf("Failed to post order %s: %v", order.orderNo, err)
			continue
		}
		stdLog.Printf("Posted order %s: %d entries, %d skipped", order.orderNo, len(result.Entries), len(result.SkippedOrderItemIDs))
	}

	var admin models.Admin
	if err := models.DB.Where("is_super = ?", true).Order("id ASC").First(&admin).Error; err != nil {
		stdLog.Fatalf("Failed to load super admin: %v", err)
	}
	if _, err := container.LedgerService.CreateManualAdjustment(ctx, service.ManualAdjustmentInput{
		RetailerID: 2,
		Amount:     models.NewMoneyFromDecimal(decimal.RequireFromString("12.00")),
		EntryType:  "DEBIT",
		AdminID:    admin.ID,
		Note:       "demo chargeback",
	}); err != nil {
		stdLog.Printf("Failed to create demo adjustment: %v", err)
	}

	stdLog.Printf("Seed completed")
}
