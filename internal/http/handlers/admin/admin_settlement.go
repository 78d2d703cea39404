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

// ExecuteSettlementRequest 执行结算请求
type ExecuteSettlementRequest struct {
	RetailerID  uint         `json:"retailer_id" binding:"required"`
	WarehouseID *uint        `json:"warehouse_id"`
	Amount      models.Money `json:"amount"`
	Note        string       `json:"note"`
}

// ListSettlements 查询结算记录
func (h *Handler) ListSettlements(c *gin.Context) {
	page, pageSize := handlershared.ParsePageQuery(c)

	filter := repository.SettlementListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.ToUpper(strings.TrimSpace(c.Query("status"))),
	}
	retailerID, ok := handlershared.ParseOptionalUint(c.Query("retailer_id"))
	if !ok {
		respondError(c, response.CodeBadRequest, "error.retailer_invalid", nil)
		return
	}
	if retailerID != nil {
		filter.RetailerID = *retailerID
	}
	if filter.WarehouseID, ok = handlershared.ParseOptionalUint(c.Query("warehouse_id")); !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if filter.CreatedFrom, ok = handlershared.ParseOptionalTime(c.Query("created_from"), false); !ok {
		respondError(c, response.CodeBadRequest, "error.date_range_invalid", nil)
		return
	}
	if filter.CreatedTo, ok = handlershared.ParseOptionalTime(c.Query("created_to"), true); !ok {
		respondError(c, response.CodeBadRequest, "error.date_range_invalid", nil)
		return
	}

	rows, total, err := h.SettlementService.ListSettlements(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// GetSettlement 获取结算详情（含明细）
// 携带 retailer_id 时仅允许查看该零售商的结算
func (h *Handler) GetSettlement(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.id_invalid", nil)
		return
	}
	retailerID, ok := handlershared.ParseOptionalUint(c.Query("retailer_id"))
	if !ok {
		respondError(c, response.CodeBadRequest, "error.retailer_invalid", nil)
		return
	}
	settlement, err := h.SettlementService.GetSettlementDetail(uint(id), retailerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, settlement)
}

// ExecuteSettlement 执行结算
func (h *Handler) ExecuteSettlement(c *gin.Context) {
	input, ok := h.bindSettlementInput(c)
	if !ok {
		return
	}
	settlement, err := h.SettlementService.ExecuteSettlement(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, settlement)
}

// PreviewSettlement 预览结算分配（不落库）
func (h *Handler) PreviewSettlement(c *gin.Context) {
	input, ok := h.bindSettlementInput(c)
	if !ok {
		return
	}
	preview, err := h.SettlementService.PreviewSettlement(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, preview)
}

func (h *Handler) bindSettlementInput(c *gin.Context) (service.ExecuteSettlementInput, bool) {
	adminID, ok := getAdminID(c)
	if !ok {
		return service.ExecuteSettlementInput{}, false
	}
	var req ExecuteSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return service.ExecuteSettlementInput{}, false
	}
	return service.ExecuteSettlementInput{
		RetailerID:  req.RetailerID,
		WarehouseID: req.WarehouseID,
		Amount:      req.Amount,
		AdminID:     adminID,
		Note:        strings.TrimSpace(req.Note),
	}, true
}
