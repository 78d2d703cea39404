package repository

import (
	"testing"
	"time"

	"github.com/payout-ledger/internal/constants"
	"github.com/payout-ledger/internal/models"
)

func TestDashboardRepositoryLedgerOverview(t *testing.T) {
	ledgerRepo, db := setupLedgerRepositoryTest(t)
	repo := NewDashboardRepository(db)
	now := time.Now().UTC()
	wh := uintPtr(1)

	revenue := func(orderID uint, amount string, trigger time.Time) models.LedgerEntry {
		entry := creditEntry(5, wh, amount, trigger)
		entry.OrderID = &orderID
		return entry
	}
	fee := creditEntry(5, wh, "10.00", now.Add(-time.Hour))
	fee.TransactionType = constants.LedgerTxnTypePlatformFee
	fee.EntryType = constants.LedgerEntryTypeDebit
	partially := revenue(1, "50.00", now.Add(-2*time.Hour))
	partially.SettledAmount = money("20.00")
	partially.Status = constants.LedgerStatusPartiallySettled
	settled := revenue(2, "40.00", now.Add(-3*time.Hour))
	settled.SettledAmount = money("40.00")
	settled.Status = constants.LedgerStatusSettled

	entries := []models.LedgerEntry{
		revenue(1, "100.00", now.Add(-time.Hour)),
		partially,
		settled,
		revenue(3, "25.00", now.Add(24*time.Hour)),
		fee,
	}
	if err := ledgerRepo.CreateEntries(entries); err != nil {
		t.Fatalf("create entries failed: %v", err)
	}

	row, err := repo.GetLedgerOverview(5, wh, now)
	if err != nil {
		t.Fatalf("ledger overview failed: %v", err)
	}
	if row.TotalOrders != 3 {
		t.Fatalf("total orders want 3 got %d", row.TotalOrders)
	}
	checks := []struct {
		name string
		got  models.Money
		want string
	}{
		{name: "total sales", got: row.TotalSales, want: "215.00"},
		{name: "credit remaining", got: row.CreditRemaining, want: "155.00"},
		{name: "debit remaining", got: row.DebitRemaining, want: "10.00"},
		{name: "available credit", got: row.AvailableCredit, want: "130.00"},
		{name: "pending credit", got: row.PendingCredit, want: "25.00"},
	}
	for _, check := range checks {
		if check.got.String() != check.want {
			t.Fatalf("%s want %s got %s", check.name, check.want, check.got.String())
		}
	}

	earliest, err := repo.GetEarliestUnsettledCredit(5, wh)
	if err != nil || earliest == nil {
		t.Fatalf("earliest unsettled failed: %v", err)
	}
	if !earliest.Equal(partially.TriggerDate) {
		t.Fatalf("earliest unsettled want %v got %v", partially.TriggerDate, *earliest)
	}

	settlementOverview, err := repo.GetSettlementOverview(5, nil)
	if err != nil {
		t.Fatalf("settlement overview failed: %v", err)
	}
	if !settlementOverview.SettledTotal.Decimal.IsZero() || settlementOverview.LastSettlement != nil {
		t.Fatalf("no settlement yet, got total=%s last=%+v", settlementOverview.SettledTotal.String(), settlementOverview.LastSettlement)
	}
}

func TestDashboardRepositorySettlementOverviewFollowsConsumedEntries(t *testing.T) {
	ledgerRepo, db := setupLedgerRepositoryTest(t)
	settlementRepo := NewSettlementRepository(db)
	repo := NewDashboardRepository(db)
	base := time.Now().UTC().Add(-24 * time.Hour)

	entries := []models.LedgerEntry{
		creditEntry(8, uintPtr(9), "100.00", base),
		creditEntry(8, uintPtr(3), "40.00", base),
		creditEntry(8, nil, "5.00", base),
	}
	if err := ledgerRepo.CreateEntries(entries); err != nil {
		t.Fatalf("create entries failed: %v", err)
	}

	// 零售商级结算（无仓库）消耗了 9 号仓与 3 号仓的条目
	retailerWide := &models.Settlement{RetailerID: 8, Amount: money("130.00"), Status: constants.SettlementStatusCompleted, AdminID: 1}
	if err := settlementRepo.Create(retailerWide, []models.SettlementLedgerItem{
		{LedgerEntryID: entries[0].ID, AllocatedAmount: money("100.00")},
		{LedgerEntryID: entries[1].ID, AllocatedAmount: money("30.00")},
	}); err != nil {
		t.Fatalf("create retailer-wide settlement failed: %v", err)
	}
	// 其他零售商的结算不计入
	other := &models.Settlement{RetailerID: 99, Amount: money("1.00"), Status: constants.SettlementStatusCompleted, AdminID: 1}
	if err := settlementRepo.Create(other, nil); err != nil {
		t.Fatalf("create other settlement failed: %v", err)
	}

	cases := []struct {
		name      string
		warehouse *uint
		total     string
		hasLast   bool
	}{
		{name: "warehouse 9", warehouse: uintPtr(9), total: "100.00", hasLast: true},
		{name: "warehouse 3", warehouse: uintPtr(3), total: "30.00", hasLast: true},
		{name: "retailer wide", warehouse: nil, total: "130.00", hasLast: true},
		{name: "untouched warehouse", warehouse: uintPtr(4), total: "0.00", hasLast: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			row, err := repo.GetSettlementOverview(8, tc.warehouse)
			if err != nil {
				t.Fatalf("settlement overview failed: %v", err)
			}
			if row.SettledTotal.String() != tc.total {
				t.Fatalf("settled total want %s got %s", tc.total, row.SettledTotal.String())
			}
			if tc.hasLast && (row.LastSettlement == nil || row.LastSettlement.ID != retailerWide.ID) {
				t.Fatalf("last settlement want id=%d got %+v", retailerWide.ID, row.LastSettlement)
			}
			if !tc.hasLast && row.LastSettlement != nil {
				t.Fatalf("last settlement want nil got id=%d", row.LastSettlement.ID)
			}
		})
	}
}
