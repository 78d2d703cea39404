package admin

import (
	"strings"

	handlershared "github.com/payout-ledger/internal/http/handlers/shared"
	"github.com/payout-ledger/internal/http/response"
	"github.com/payout-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// GetDashboardSummary 获取零售商仪表盘
func (h *Handler) GetDashboardSummary(c *gin.Context) {
	retailerID, ok := handlershared.ParseOptionalUint(c.Query("retailer_id"))
	if !ok || retailerID == nil {
		respondError(c, response.CodeBadRequest, "error.retailer_invalid", nil)
		return
	}
	warehouseID, ok := handlershared.ParseOptionalUint(c.Query("warehouse_id"))
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	forceRefresh := parseBool(c.Query("force_refresh"))

	summary, err := h.DashboardService.GetSummary(c.Request.Context(), service.DashboardQueryInput{
		RetailerID:   *retailerID,
		WarehouseID:  warehouseID,
		ForceRefresh: forceRefresh,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, summary)
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
