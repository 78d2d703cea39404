package queue

import (
	"encoding/json"
	"time"

	"github.com/payout-ledger/internal/constants"
	"github.com/payout-ledger/internal/models"
	"github.com/payout-ledger/internal/service"

	"github.com/hibiken/asynq"
)

const (
	// TaskLedgerOrderEntries 订单入账任务
	TaskLedgerOrderEntries = constants.TaskLedgerOrderEntries
	// TaskLedgerCacheEvict 看板缓存失效任务
	TaskLedgerCacheEvict = constants.TaskLedgerCacheEvict
)

// OrderLedgerItemPayload 订单项入账载荷
type OrderLedgerItemPayload struct {
	OrderItemID uint          `json:"order_item_id"`
	RetailerID  uint          `json:"retailer_id"`
	WarehouseID uint          `json:"warehouse_id"`
	Amount      models.Money  `json:"amount"`
	PlatformFee *models.Money `json:"platform_fee,omitempty"`
}

// OrderLedgerEntriesPayload 订单入账任务载荷
type OrderLedgerEntriesPayload struct {
	OrderID     uint                     `json:"order_id"`
	OrderNo     string                   `json:"order_no,omitempty"`
	TriggerDate *time.Time               `json:"trigger_date,omitempty"`
	Items       []OrderLedgerItemPayload `json:"items"`
}

// LedgerCacheEvictPayload 看板缓存失效载荷
type LedgerCacheEvictPayload struct {
	RetailerID uint `json:"retailer_id"`
}

// NewOrderLedgerEntriesTask 创建订单入账任务
func NewOrderLedgerEntriesTask(payload OrderLedgerEntriesPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerOrderEntries, body), nil
}

// NewLedgerCacheEvictTask 创建看板缓存失效任务
func NewLedgerCacheEvictTask(payload LedgerCacheEvictPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerCacheEvict, body), nil
}

// Event 转换为账本服务的入账事件
func (p OrderLedgerEntriesPayload) Event() service.OrderLedgerEvent {
	items := make([]service.OrderLedgerItem, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, service.OrderLedgerItem{
			OrderItemID: item.OrderItemID,
			RetailerID:  item.RetailerID,
			WarehouseID: item.WarehouseID,
			Amount:      item.Amount,
			PlatformFee: item.PlatformFee,
		})
	}
	return service.OrderLedgerEvent{
		OrderID:     p.OrderID,
		OrderNo:     p.OrderNo,
		TriggerDate: p.TriggerDate,
		Items:       items,
	}
}
