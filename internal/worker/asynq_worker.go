package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/payout-ledger/internal/cache"
	"github.com/payout-ledger/internal/logger"
	"github.com/payout-ledger/internal/provider"
	"github.com/payout-ledger/internal/queue"
	"github.com/payout-ledger/internal/service"

	"github.com/hibiken/asynq"
)

// 任务处理结果（指标标签）
const (
	taskResultOK      = "ok"
	taskResultSkipped = "skipped"
	taskResultRetry   = "retry"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskLedgerOrderEntries, c.handleOrderLedgerEntries)
	mux.HandleFunc(queue.TaskLedgerCacheEvict, c.handleLedgerCacheEvict)
}

// handleOrderLedgerEntries 消费订单入账任务
func (c *Consumer) handleOrderLedgerEntries(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.LedgerService == nil {
		logger.Debugw("worker_order_ledger_entries_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderLedgerEntriesPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_ledger_entries_unmarshal_failed", "error", err)
		c.Metrics.IncWorkerTask(task.Type(), taskResultSkipped)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	ctx = logger.WithFields(ctx, "task", task.Type(), "order_id", payload.OrderID)

	result, err := c.LedgerService.PostOrderLedgerEntries(ctx, payload.Event())
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			logger.Ctx(ctx).Warnw("worker_order_ledger_entries_invalid_payload", "error", err)
			c.Metrics.IncWorkerTask(task.Type(), taskResultSkipped)
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		logger.Ctx(ctx).Warnw("worker_task_failed", "error", err)
		c.Metrics.IncWorkerTask(task.Type(), taskResultRetry)
		return err
	}
	c.scheduleCacheEvictions(ctx, result)
	c.Metrics.IncWorkerTask(task.Type(), taskResultOK)
	return nil
}

// scheduleCacheEvictions 为未到期的贷记安排看板缓存失效，使到期后可结算余额及时刷新
func (c *Consumer) scheduleCacheEvictions(ctx context.Context, result *service.PostOrderLedgerResult) {
	if result == nil || !c.QueueClient.Enabled() {
		return
	}
	scheduled := make(map[string]struct{})
	for _, entry := range result.Entries {
		if !entry.IsCredit() {
			continue
		}
		key := fmt.Sprintf("%d:%d", entry.RetailerID, entry.TriggerDate.Unix())
		if _, ok := scheduled[key]; ok {
			continue
		}
		scheduled[key] = struct{}{}
		payload := queue.LedgerCacheEvictPayload{RetailerID: entry.RetailerID}
		if err := c.QueueClient.EnqueueLedgerCacheEvict(payload, entry.TriggerDate); err != nil {
			logger.Ctx(ctx).Warnw("worker_schedule_cache_evict_failed", "retailer_id", entry.RetailerID, "error", err)
		}
	}
}

func (c *Consumer) handleLedgerCacheEvict(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.LedgerCacheEvictPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_ledger_cache_evict_unmarshal_failed", "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.RetailerID == 0 {
		return nil
	}
	if err := cache.InvalidateDashboardSummary(ctx, payload.RetailerID); err != nil {
		logger.Warnw("worker_ledger_cache_evict_failed", "retailer_id", payload.RetailerID, "error", err)
		c.Metrics.IncWorkerTask(task.Type(), taskResultRetry)
		return err
	}
	c.Metrics.IncWorkerTask(task.Type(), taskResultOK)
	return nil
}
