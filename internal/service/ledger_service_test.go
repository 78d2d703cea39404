package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/payout-ledger/internal/constants"
	"github.com/payout-ledger/internal/models"
	"github.com/payout-ledger/internal/repository"
)

func moneyRef(v string) *models.Money {
	m := mustMoney(v)
	return &m
}

func TestPostOrderLedgerEntriesCreatesRevenueAndFee(t *testing.T) {
	env := setupSettlementServiceTest(t)
	trigger := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	result, err := env.ledger.PostOrderLedgerEntries(context.Background(), OrderLedgerEvent{
		OrderID:     42,
		OrderNo:     "SO-42",
		TriggerDate: &trigger,
		Items: []OrderLedgerItem{
			{OrderItemID: 1, RetailerID: 3, WarehouseID: 8, Amount: mustMoney("80")},
			{OrderItemID: 2, RetailerID: 3, WarehouseID: 9, Amount: mustMoney("25.55")},
			{OrderItemID: 3, RetailerID: 3, WarehouseID: 9, Amount: mustMoney("10"), PlatformFee: moneyRef("0")},
		},
	})
	if err != nil {
		t.Fatalf("post order entries failed: %v", err)
	}
	if len(result.Entries) != 5 {
		t.Fatalf("entries want 5 got %d", len(result.Entries))
	}

	fees := map[uint]string{}
	for _, entry := range result.Entries {
		if entry.ID == 0 {
			t.Fatalf("entry should be persisted: %+v", entry)
		}
		if !entry.TriggerDate.Equal(trigger) {
			t.Fatalf("entry trigger date want %v got %v", trigger, entry.TriggerDate)
		}
		if entry.Status != constants.LedgerStatusAvailable || !entry.SettledAmount.Decimal.IsZero() {
			t.Fatalf("new entry should be AVAILABLE with zero settled: %+v", entry)
		}
		switch entry.TransactionType {
		case constants.LedgerTxnTypeOrderRevenue:
			if entry.EntryType != constants.LedgerEntryTypeCredit {
				t.Fatalf("revenue must be credit")
			}
		case constants.LedgerTxnTypePlatformFee:
			if entry.EntryType != constants.LedgerEntryTypeDebit {
				t.Fatalf("fee must be debit")
			}
			fees[*entry.OrderItemID] = entry.Amount.String()
		default:
			t.Fatalf("unexpected transaction type %s", entry.TransactionType)
		}
	}
	if fees[1] != "8.00" || fees[2] != "2.56" {
		t.Fatalf("unexpected fees: %v", fees)
	}
	if _, ok := fees[3]; ok {
		t.Fatalf("zero fee must not create a debit entry")
	}
}

func TestPostOrderLedgerEntriesIsIdempotent(t *testing.T) {
	env := setupSettlementServiceTest(t)
	event := OrderLedgerEvent{
		OrderID: 7,
		Items: []OrderLedgerItem{
			{OrderItemID: 70, RetailerID: 1, WarehouseID: 2, Amount: mustMoney("20")},
		},
	}
	ctx := context.Background()
	if _, err := env.ledger.PostOrderLedgerEntries(ctx, event); err != nil {
		t.Fatalf("first post failed: %v", err)
	}

	event.Items = append(event.Items, OrderLedgerItem{OrderItemID: 71, RetailerID: 1, WarehouseID: 2, Amount: mustMoney("5")})
	result, err := env.ledger.PostOrderLedgerEntries(ctx, event)
	if err != nil {
		t.Fatalf("second post failed: %v", err)
	}
	if len(result.SkippedOrderItemIDs) != 1 || result.SkippedOrderItemIDs[0] != 70 {
		t.Fatalf("skipped want [70] got %v", result.SkippedOrderItemIDs)
	}
	if n := countRows(t, env.db, &models.LedgerEntry{}); n != 4 {
		t.Fatalf("ledger rows want 4 got %d", n)
	}
}

func TestPostOrderLedgerEntriesDefaultTriggerDate(t *testing.T) {
	env := setupSettlementServiceTest(t)
	fixed := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	env.ledger.now = func() time.Time { return fixed }
	env.ledger.cfg.DefaultTriggerDelayHour = 24

	result, err := env.ledger.PostOrderLedgerEntries(context.Background(), OrderLedgerEvent{
		OrderID: 1,
		Items:   []OrderLedgerItem{{OrderItemID: 1, RetailerID: 1, WarehouseID: 1, Amount: mustMoney("10")}},
	})
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	for _, entry := range result.Entries {
		if !entry.TriggerDate.Equal(fixed.Add(24 * time.Hour)) {
			t.Fatalf("trigger date want %v got %v", fixed.Add(24*time.Hour), entry.TriggerDate)
		}
	}
}

func TestPostOrderLedgerEntriesValidation(t *testing.T) {
	env := setupSettlementServiceTest(t)
	fractionalFee := exactMoney("0.125")
	cases := []struct {
		name  string
		event OrderLedgerEvent
		want  error
	}{
		{"no items", OrderLedgerEvent{OrderID: 1}, ErrInvalidOrderEvent},
		{"no order", OrderLedgerEvent{Items: []OrderLedgerItem{{OrderItemID: 1, RetailerID: 1, WarehouseID: 1, Amount: mustMoney("1")}}}, ErrInvalidOrderEvent},
		{"duplicate item", OrderLedgerEvent{OrderID: 1, Items: []OrderLedgerItem{
			{OrderItemID: 1, RetailerID: 1, WarehouseID: 1, Amount: mustMoney("1")},
			{OrderItemID: 1, RetailerID: 1, WarehouseID: 1, Amount: mustMoney("1")},
		}}, ErrInvalidOrderEvent},
		{"zero amount", OrderLedgerEvent{OrderID: 1, Items: []OrderLedgerItem{{OrderItemID: 1, RetailerID: 1, WarehouseID: 1}}}, ErrInvalidAmount},
		{"fee above amount", OrderLedgerEvent{OrderID: 1, Items: []OrderLedgerItem{
			{OrderItemID: 1, RetailerID: 1, WarehouseID: 1, Amount: mustMoney("1"), PlatformFee: moneyRef("2")},
		}}, ErrPlatformFeeExceedsSum},
		{"amount precision", OrderLedgerEvent{OrderID: 1, Items: []OrderLedgerItem{
			{OrderItemID: 1, RetailerID: 1, WarehouseID: 1, Amount: exactMoney("12.345")},
		}}, ErrAmountPrecision},
		{"fee precision", OrderLedgerEvent{OrderID: 1, Items: []OrderLedgerItem{
			{OrderItemID: 1, RetailerID: 1, WarehouseID: 1, Amount: mustMoney("12"), PlatformFee: &fractionalFee},
		}}, ErrAmountPrecision},
	}
	for _, tc := range cases {
		if _, err := env.ledger.PostOrderLedgerEntries(context.Background(), tc.event); !errors.Is(err, tc.want) {
			t.Fatalf("%s: want %v got %v", tc.name, tc.want, err)
		}
	}
	if n := countRows(t, env.db, &models.LedgerEntry{}); n != 0 {
		t.Fatalf("invalid events must not write, got %d rows", n)
	}
}

func TestCreateManualAdjustment(t *testing.T) {
	env := setupSettlementServiceTest(t)
	ctx := context.Background()

	credit, err := env.ledger.CreateManualAdjustment(ctx, ManualAdjustmentInput{
		RetailerID:  4,
		WarehouseID: uintRef(2),
		Amount:      mustMoney("15.5"),
		EntryType:   "CREDIT",
		AdminID:     9,
		Note:        " goodwill ",
	})
	if err != nil {
		t.Fatalf("manual credit failed: %v", err)
	}
	if credit.TransactionType != constants.LedgerTxnTypeManualCredit || credit.EntryType != constants.LedgerEntryTypeCredit {
		t.Fatalf("unexpected credit entry: %+v", credit)
	}
	if credit.Note != "goodwill" || credit.AdminID == nil || *credit.AdminID != 9 {
		t.Fatalf("unexpected credit metadata: %+v", credit)
	}
	if credit.TriggerDate.After(time.Now().UTC()) {
		t.Fatalf("manual adjustment should be eligible immediately")
	}

	cases := []struct {
		name  string
		input ManualAdjustmentInput
		want  error
	}{
		{"zero amount", ManualAdjustmentInput{RetailerID: 4, AdminID: 9, EntryType: "CREDIT"}, ErrInvalidAmount},
		{"negative amount", ManualAdjustmentInput{RetailerID: 4, AdminID: 9, EntryType: "DEBIT", Amount: mustMoney("-3")}, ErrInvalidAmount},
		{"three decimals", ManualAdjustmentInput{RetailerID: 4, AdminID: 9, EntryType: "CREDIT", Amount: exactMoney("3.001")}, ErrAmountPrecision},
		{"bad type", ManualAdjustmentInput{RetailerID: 4, AdminID: 9, EntryType: "REFUND", Amount: mustMoney("3")}, ErrInvalidEntryType},
		{"missing retailer", ManualAdjustmentInput{AdminID: 9, EntryType: "DEBIT", Amount: mustMoney("3")}, ErrInvalidRetailer},
		{"missing admin", ManualAdjustmentInput{RetailerID: 4, EntryType: "DEBIT", Amount: mustMoney("3")}, ErrInvalidAdmin},
	}
	for _, tc := range cases {
		if _, err := env.ledger.CreateManualAdjustment(ctx, tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("%s: want %v got %v", tc.name, tc.want, err)
		}
	}
}

func TestListHistoryFilters(t *testing.T) {
	env := setupSettlementServiceTest(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := env.ledger.CreateManualAdjustment(ctx, ManualAdjustmentInput{
			RetailerID: 1, Amount: mustMoney("1"), EntryType: "CREDIT", AdminID: 1,
		}); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
	if _, err := env.ledger.CreateManualAdjustment(ctx, ManualAdjustmentInput{
		RetailerID: 1, Amount: mustMoney("1"), EntryType: "DEBIT", AdminID: 1,
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	rows, total, err := env.ledger.ListHistory(repository.LedgerEntryListFilter{
		RetailerID: 1, EntryType: "credit", Page: 1, PageSize: 2,
	})
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	if total != 3 || len(rows) != 2 {
		t.Fatalf("want total 3 page 2, got total %d page %d", total, len(rows))
	}
	if rows[0].ID < rows[1].ID {
		t.Fatalf("history should be newest first")
	}

	if _, _, err := env.ledger.ListHistory(repository.LedgerEntryListFilter{Status: "PENDING"}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("want invalid status, got %v", err)
	}
	if _, _, err := env.ledger.ListHistory(repository.LedgerEntryListFilter{TransactionType: "REFUND"}); !errors.Is(err, ErrInvalidTxnType) {
		t.Fatalf("want invalid txn type, got %v", err)
	}
	if _, err := env.ledger.GetEntry(9999); !errors.Is(err, ErrLedgerEntryNotFound) {
		t.Fatalf("want entry not found, got %v", err)
	}
}
