package service

import (
	"errors"
	"fmt"

	"github.com/payout-ledger/internal/models"
)

// 校验类错误，均可通过 errors.Is(err, ErrValidation) 统一识别
var (
	ErrValidation            = errors.New("validation failed")
	ErrInvalidAmount         = fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	ErrAmountPrecision       = fmt.Errorf("%w: amount has more than 2 decimal places", ErrValidation)
	ErrInvalidEntryType      = fmt.Errorf("%w: entry type must be CREDIT or DEBIT", ErrValidation)
	ErrInvalidDateRange      = fmt.Errorf("%w: date range start is after end", ErrValidation)
	ErrInvalidRetailer       = fmt.Errorf("%w: retailer id is required", ErrValidation)
	ErrInvalidAdmin          = fmt.Errorf("%w: admin id is required", ErrValidation)
	ErrInvalidStatus         = fmt.Errorf("%w: unknown status", ErrValidation)
	ErrInvalidTxnType        = fmt.Errorf("%w: unknown transaction type", ErrValidation)
	ErrInvalidOrderEvent     = fmt.Errorf("%w: order event is malformed", ErrValidation)
	ErrPlatformFeeExceedsSum = fmt.Errorf("%w: platform fee exceeds item amount", ErrValidation)
)

// 结算相关错误
var (
	ErrInsufficientLedgerBalance    = errors.New("insufficient ledger balance")
	ErrConcurrentSettlementConflict = errors.New("concurrent settlement conflict")
	ErrSettlementNotFound           = errors.New("settlement not found")
	ErrLedgerEntryNotFound          = errors.New("ledger entry not found")
	ErrStoreUnavailable             = errors.New("store unavailable")
)

// 认证相关错误
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrWeakPassword       = errors.New("weak password")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrNotFound           = errors.New("not found")
)

// InsufficientLedgerBalanceError 余额不足，携带缺口金额
type InsufficientLedgerBalanceError struct {
	Requested models.Money
	Available models.Money
	Shortfall models.Money
}

func (e *InsufficientLedgerBalanceError) Error() string {
	return fmt.Sprintf("%s: requested %s, available %s, shortfall %s",
		ErrInsufficientLedgerBalance.Error(), e.Requested.String(), e.Available.String(), e.Shortfall.String())
}

// Is 支持 errors.Is(err, ErrInsufficientLedgerBalance)
func (e *InsufficientLedgerBalanceError) Is(target error) bool {
	return target == ErrInsufficientLedgerBalance
}

// wrapStoreError 将持久层错误包装为 ErrStoreUnavailable，已归类的业务错误原样返回
func wrapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientLedgerBalance) ||
		errors.Is(err, ErrConcurrentSettlementConflict) ||
		errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
