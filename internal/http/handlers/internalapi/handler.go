package internalapi

import (
	handlershared "github.com/payout-ledger/internal/http/handlers/shared"
	"github.com/payout-ledger/internal/http/response"
	"github.com/payout-ledger/internal/provider"
	"github.com/payout-ledger/internal/queue"
	"github.com/payout-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// Handler 服务间内部接口处理器
// 说明：仅供订单系统推送入账事件，由内部 Token 保护。
type Handler struct {
	*provider.Container
}

// New 创建内部接口处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

// PostOrderEvent 接收订单入账事件
// 队列可用时异步入账并返回 queued=true，否则同步入账并返回新建条目。
func (h *Handler) PostOrderEvent(c *gin.Context) {
	var req queue.OrderLedgerEntriesPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	event := req.Event()
	if err := service.ValidateOrderLedgerEvent(event); err != nil {
		handlershared.RespondServiceError(c, err)
		return
	}

	log := handlershared.RequestLog(c)
	if h.QueueClient.Enabled() {
		if err := h.QueueClient.EnqueueOrderLedgerEntries(req); err != nil {
			log.Errorw("internal_order_event_enqueue_failed", "order_id", req.OrderID, "error", err)
			handlershared.RespondError(c, response.CodeInternal, "error.queue_unavailable", err)
			return
		}
		log.Infow("internal_order_event_queued", "order_id", req.OrderID, "items", len(req.Items))
		response.Success(c, gin.H{"queued": true, "order_id": req.OrderID})
		return
	}

	result, err := h.LedgerService.PostOrderLedgerEntries(c.Request.Context(), event)
	if err != nil {
		handlershared.RespondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"queued":   false,
		"order_id": req.OrderID,
		"entries":  result.Entries,
		"skipped":  result.SkippedOrderItemIDs,
	})
}
