package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/payout-ledger/internal/http/handlers/shared"
	"github.com/payout-ledger/internal/http/response"
	"github.com/payout-ledger/internal/models"
	"github.com/payout-ledger/internal/repository"
	"github.com/payout-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateLedgerAdjustmentRequest 人工调账请求
type CreateLedgerAdjustmentRequest struct {
	RetailerID  uint         `json:"retailer_id" binding:"required"`
	WarehouseID *uint        `json:"warehouse_id"`
	Amount      models.Money `json:"amount"`
	EntryType   string       `json:"entry_type" binding:"required"`
	Note        string       `json:"note"`
}

// ListLedgerEntries 查询账本流水
func (h *Handler) ListLedgerEntries(c *gin.Context) {
	filter, ok := parseLedgerListFilter(c)
	if !ok {
		return
	}
	entries, total, err := h.LedgerService.ListHistory(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, entries, response.BuildPagination(filter.Page, filter.PageSize, total))
}

func parseLedgerListFilter(c *gin.Context) (repository.LedgerEntryListFilter, bool) {
	page, pageSize := handlershared.ParsePageQuery(c)

	filter := repository.LedgerEntryListFilter{
		Page:            page,
		PageSize:        pageSize,
		Status:          strings.TrimSpace(c.Query("status")),
		TransactionType: strings.TrimSpace(c.Query("transaction_type")),
		EntryType:       strings.TrimSpace(c.Query("entry_type")),
	}
	retailerID, ok := handlershared.ParseOptionalUint(c.Query("retailer_id"))
	if !ok {
		respondError(c, response.CodeBadRequest, "error.retailer_invalid", nil)
		return filter, false
	}
	if retailerID != nil {
		filter.RetailerID = *retailerID
	}
	warehouseID, ok := handlershared.ParseOptionalUint(c.Query("warehouse_id"))
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return filter, false
	}
	filter.WarehouseID = warehouseID

	createdFrom, ok := handlershared.ParseOptionalTime(c.Query("created_from"), false)
	if !ok {
		respondError(c, response.CodeBadRequest, "error.date_range_invalid", nil)
		return filter, false
	}
	createdTo, ok := handlershared.ParseOptionalTime(c.Query("created_to"), true)
	if !ok {
		respondError(c, response.CodeBadRequest, "error.date_range_invalid", nil)
		return filter, false
	}
	filter.CreatedFrom = createdFrom
	filter.CreatedTo = createdTo
	return filter, true
}

// GetLedgerEntry 获取单条流水
func (h *Handler) GetLedgerEntry(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.id_invalid", nil)
		return
	}
	entry, err := h.LedgerService.GetEntry(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, entry)
}

// CreateLedgerAdjustment 创建人工调账
func (h *Handler) CreateLedgerAdjustment(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req CreateLedgerAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	entry, err := h.LedgerService.CreateManualAdjustment(c.Request.Context(), service.ManualAdjustmentInput{
		RetailerID:  req.RetailerID,
		WarehouseID: req.WarehouseID,
		Amount:      req.Amount,
		EntryType:   req.EntryType,
		AdminID:     adminID,
		Note:        strings.TrimSpace(req.Note),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, entry)
}
