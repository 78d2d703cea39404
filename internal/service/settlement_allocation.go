package service

import (
	"github.com/payout-ledger/internal/models"

	"github.com/shopspring/decimal"
)

// Allocation 单条账本条目的分配结果
type Allocation struct {
	EntryID        uint         `json:"entry_id"`
	Amount         models.Money `json:"amount"`
	PrevSettled    models.Money `json:"prev_settled"`
	NewSettled     models.Money `json:"new_settled"`
	NewStatus      string       `json:"new_status"`
	EntryAmount    models.Money `json:"entry_amount"`
	EntryRemaining models.Money `json:"entry_remaining"`
}

// AllocationResult FIFO 分配结果
type AllocationResult struct {
	Allocations    []Allocation `json:"allocations"`
	AllocatedTotal models.Money `json:"allocated_total"`
	Remainder      models.Money `json:"remainder"`
}

// Sufficient 是否足额分配
func (r AllocationResult) Sufficient() bool {
	return r.Remainder.Decimal.Sign() <= 0
}

// AllocateFIFO 按给定顺序（调用方保证 trigger_date、id 升序）消耗贷记条目直到凑足目标金额
// 纯计算，不修改入参；借记条目与已无余额的条目被跳过。目标金额需由调用方保证大于 0。
func AllocateFIFO(target models.Money, entries []models.LedgerEntry) AllocationResult {
	goal := target.Decimal.Round(2)
	allocated := decimal.Zero
	allocations := make([]Allocation, 0)

	for _, entry := range entries {
		if allocated.GreaterThanOrEqual(goal) {
			break
		}
		if !entry.IsCredit() {
			continue
		}
		remaining := entry.Remaining()
		if remaining.Decimal.Sign() <= 0 {
			continue
		}
		take := decimal.Min(remaining.Decimal, goal.Sub(allocated)).Round(2)
		if take.Sign() <= 0 {
			continue
		}
		newSettled := models.NewMoneyFromDecimal(entry.SettledAmount.Decimal.Add(take))
		allocations = append(allocations, Allocation{
			EntryID:        entry.ID,
			Amount:         models.NewMoneyFromDecimal(take),
			PrevSettled:    entry.SettledAmount,
			NewSettled:     newSettled,
			NewStatus:      models.DeriveLedgerStatus(entry.Amount, newSettled),
			EntryAmount:    entry.Amount,
			EntryRemaining: models.NewMoneyFromDecimal(remaining.Decimal.Sub(take)),
		})
		allocated = allocated.Add(take)
	}

	remainder := goal.Sub(allocated)
	if remainder.IsNegative() {
		remainder = decimal.Zero
	}
	return AllocationResult{
		Allocations:    allocations,
		AllocatedTotal: models.NewMoneyFromDecimal(allocated),
		Remainder:      models.NewMoneyFromDecimal(remainder),
	}
}
