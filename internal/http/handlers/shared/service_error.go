package shared

import (
	"errors"

	"github.com/payout-ledger/internal/http/response"
	"github.com/payout-ledger/internal/i18n"
	"github.com/payout-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

var validationErrorKeys = []struct {
	err error
	key string
}{
	{service.ErrInvalidAmount, "error.amount_invalid"},
	{service.ErrAmountPrecision, "error.amount_precision_invalid"},
	{service.ErrInvalidEntryType, "error.entry_type_invalid"},
	{service.ErrInvalidDateRange, "error.date_range_invalid"},
	{service.ErrInvalidRetailer, "error.retailer_invalid"},
	{service.ErrInvalidAdmin, "error.admin_id_invalid"},
	{service.ErrInvalidStatus, "error.status_invalid"},
	{service.ErrInvalidTxnType, "error.txn_type_invalid"},
	{service.ErrInvalidOrderEvent, "error.order_event_invalid"},
	{service.ErrPlatformFeeExceedsSum, "error.platform_fee_exceeds"},
}

// RespondServiceError 将账本与结算服务错误映射为统一响应。
// 余额不足返回 422 并附带 requested/available/shortfall。
func RespondServiceError(c *gin.Context, err error) {
	var insufficient *service.InsufficientLedgerBalanceError
	switch {
	case err == nil:
		RespondError(c, response.CodeInternal, "error.internal", nil)
	case errors.As(err, &insufficient):
		locale := i18n.ResolveLocale(c)
		msg := i18n.Sprintf(locale, "error.insufficient_balance", insufficient.Shortfall.String())
		response.ErrorWithData(c, response.CodeUnprocessable, msg, gin.H{
			"requested": insufficient.Requested,
			"available": insufficient.Available,
			"shortfall": insufficient.Shortfall,
		})
	case errors.Is(err, service.ErrValidation):
		for _, item := range validationErrorKeys {
			if errors.Is(err, item.err) {
				RespondError(c, response.CodeBadRequest, item.key, nil)
				return
			}
		}
		RespondError(c, response.CodeBadRequest, "error.validation", nil)
	case errors.Is(err, service.ErrConcurrentSettlementConflict):
		RespondError(c, response.CodeConflict, "error.settlement_conflict", nil)
	case errors.Is(err, service.ErrSettlementNotFound):
		RespondError(c, response.CodeNotFound, "error.settlement_not_found", nil)
	case errors.Is(err, service.ErrLedgerEntryNotFound):
		RespondError(c, response.CodeNotFound, "error.ledger_entry_not_found", nil)
	case errors.Is(err, service.ErrAdminNotFound), errors.Is(err, service.ErrNotFound):
		RespondError(c, response.CodeNotFound, "error.not_found", nil)
	case errors.Is(err, service.ErrStoreUnavailable):
		RespondError(c, response.CodeInternal, "error.store_unavailable", err)
	default:
		RespondError(c, response.CodeInternal, "error.internal", err)
	}
}
