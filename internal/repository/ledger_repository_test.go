package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/payout-ledger/internal/constants"
	"github.com/payout-ledger/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupLedgerRepositoryTest(t *testing.T) (*GormLedgerRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:ledger_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{NowFunc: func() time.Time { return time.Now().UTC() }})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.MigrateAll(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewLedgerRepository(db), db
}

func money(v string) models.Money {
	return models.NewMoneyFromDecimal(decimal.RequireFromString(v))
}

func uintPtr(v uint) *uint {
	return &v
}

func creditEntry(retailerID uint, warehouseID *uint, amount string, triggerDate time.Time) models.LedgerEntry {
	return models.LedgerEntry{
		RetailerID:      retailerID,
		WarehouseID:     warehouseID,
		Amount:          money(amount),
		TransactionType: constants.LedgerTxnTypeOrderRevenue,
		EntryType:       constants.LedgerEntryTypeCredit,
		Status:          constants.LedgerStatusAvailable,
		TriggerDate:     triggerDate,
	}
}

func TestLedgerRepositoryGetAvailableFIFOOrder(t *testing.T) {
	repo, _ := setupLedgerRepositoryTest(t)
	base := time.Now().UTC().Add(-72 * time.Hour).Truncate(time.Second)
	wh := uintPtr(5)

	entries := []models.LedgerEntry{
		creditEntry(1, wh, "30.00", base.Add(2*time.Hour)),
		creditEntry(1, wh, "10.00", base),
		creditEntry(1, wh, "20.00", base),
		creditEntry(2, wh, "99.00", base),
	}
	settled := creditEntry(1, wh, "40.00", base.Add(-time.Hour))
	settled.Status = constants.LedgerStatusSettled
	settled.SettledAmount = money("40.00")
	entries = append(entries, settled)
	if err := repo.CreateEntries(entries); err != nil {
		t.Fatalf("create entries failed: %v", err)
	}

	got, err := repo.GetAvailable(AvailableEntryQuery{RetailerID: 1, WarehouseID: wh})
	if err != nil {
		t.Fatalf("get available failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("available count want 3 got %d", len(got))
	}
	wantAmounts := []string{"10.00", "20.00", "30.00"}
	for i, entry := range got {
		if entry.Amount.String() != wantAmounts[i] {
			t.Fatalf("fifo position %d want %s got %s", i, wantAmounts[i], entry.Amount.String())
		}
	}
	if got[0].ID >= got[1].ID {
		t.Fatalf("equal trigger dates should break ties by id asc: %d, %d", got[0].ID, got[1].ID)
	}
}

func TestLedgerRepositoryGetAvailableEligibilityAndWarehouse(t *testing.T) {
	repo, _ := setupLedgerRepositoryTest(t)
	now := time.Now().UTC()
	wh1 := uintPtr(1)
	wh2 := uintPtr(2)

	entries := []models.LedgerEntry{
		creditEntry(7, wh1, "10.00", now.Add(-time.Hour)),
		creditEntry(7, wh2, "20.00", now.Add(-time.Hour)),
		creditEntry(7, nil, "5.00", now.Add(-2*time.Hour)),
		creditEntry(7, wh1, "50.00", now.Add(48*time.Hour)),
	}
	if err := repo.CreateEntries(entries); err != nil {
		t.Fatalf("create entries failed: %v", err)
	}

	eligibleAt := now
	scoped, err := repo.GetAvailable(AvailableEntryQuery{RetailerID: 7, WarehouseID: wh1, EligibleAt: &eligibleAt})
	if err != nil {
		t.Fatalf("get available failed: %v", err)
	}
	if len(scoped) != 2 {
		t.Fatalf("warehouse scoped eligible count want 2 got %d", len(scoped))
	}
	if scoped[0].WarehouseID != nil || scoped[1].Amount.String() != "10.00" {
		t.Fatalf("unexpected scoped entries: %+v", scoped)
	}

	all, err := repo.GetAvailable(AvailableEntryQuery{RetailerID: 7})
	if err != nil {
		t.Fatalf("get available all failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("retailer-wide count want 4 got %d", len(all))
	}

	locked, err := repo.GetAvailableForUpdate(AvailableEntryQuery{RetailerID: 7, EligibleAt: &eligibleAt})
	if err != nil {
		t.Fatalf("get available for update failed: %v", err)
	}
	if len(locked) != 3 {
		t.Fatalf("eligible retailer-wide count want 3 got %d", len(locked))
	}
}

func TestLedgerRepositoryApplySettledAmountCompareAndSet(t *testing.T) {
	repo, _ := setupLedgerRepositoryTest(t)
	entries := []models.LedgerEntry{creditEntry(1, uintPtr(1), "50.00", time.Now().UTC())}
	if err := repo.CreateEntries(entries); err != nil {
		t.Fatalf("create entries failed: %v", err)
	}
	entryID := entries[0].ID
	if entryID == 0 {
		t.Fatalf("expected entry id backfilled")
	}

	ok, err := repo.ApplySettledAmount(SettledAmountPatch{
		EntryID:         entryID,
		ExpectedSettled: money("0"),
		NewSettled:      money("20.00"),
		Status:          constants.LedgerStatusPartiallySettled,
	})
	if err != nil || !ok {
		t.Fatalf("first patch should apply, ok=%v err=%v", ok, err)
	}

	ok, err = repo.ApplySettledAmount(SettledAmountPatch{
		EntryID:         entryID,
		ExpectedSettled: money("0"),
		NewSettled:      money("30.00"),
		Status:          constants.LedgerStatusPartiallySettled,
	})
	if err != nil {
		t.Fatalf("stale patch failed: %v", err)
	}
	if ok {
		t.Fatalf("stale expected settled amount should not apply")
	}

	ok, err = repo.ApplySettledAmount(SettledAmountPatch{
		EntryID:         entryID,
		ExpectedSettled: money("20.00"),
		NewSettled:      money("50.00"),
		Status:          constants.LedgerStatusSettled,
	})
	if err != nil || !ok {
		t.Fatalf("second patch should apply, ok=%v err=%v", ok, err)
	}

	entry, err := repo.GetByID(entryID)
	if err != nil || entry == nil {
		t.Fatalf("get entry failed: %v", err)
	}
	if entry.Status != constants.LedgerStatusSettled || entry.SettledAmount.String() != "50.00" {
		t.Fatalf("unexpected entry after patches: status=%s settled=%s", entry.Status, entry.SettledAmount.String())
	}
	if entry.LastSettledAt == nil {
		t.Fatalf("expected last_settled_at set")
	}
}

func TestLedgerRepositoryCreateEntriesAllOrNothing(t *testing.T) {
	repo, db := setupLedgerRepositoryTest(t)
	orderItemID := uint(88)
	first := creditEntry(1, uintPtr(1), "10.00", time.Now().UTC())
	first.OrderItemID = &orderItemID
	if err := repo.CreateEntries([]models.LedgerEntry{first}); err != nil {
		t.Fatalf("create first entry failed: %v", err)
	}

	other := creditEntry(1, uintPtr(1), "15.00", time.Now().UTC())
	duplicate := creditEntry(1, uintPtr(1), "10.00", time.Now().UTC())
	duplicate.OrderItemID = &orderItemID
	if err := repo.CreateEntries([]models.LedgerEntry{other, duplicate}); err == nil {
		t.Fatalf("expected duplicate order item revenue rejected")
	}

	var count int64
	if err := db.Model(&models.LedgerEntry{}).Count(&count).Error; err != nil {
		t.Fatalf("count entries failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("batch with a failing row must not persist partially, count=%d", count)
	}

	posted, err := repo.ListPostedOrderItemIDs([]uint{orderItemID, 99}, constants.LedgerTxnTypeOrderRevenue)
	if err != nil {
		t.Fatalf("list posted failed: %v", err)
	}
	if len(posted) != 1 || posted[0] != orderItemID {
		t.Fatalf("posted order items want [%d] got %v", orderItemID, posted)
	}
}

func TestLedgerRepositoryListHistoryNewestFirst(t *testing.T) {
	repo, db := setupLedgerRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)
	entries := []models.LedgerEntry{
		creditEntry(3, uintPtr(1), "10.00", now),
		creditEntry(3, uintPtr(1), "20.00", now),
		creditEntry(3, uintPtr(2), "30.00", now),
		creditEntry(4, uintPtr(1), "40.00", now),
	}
	fee := creditEntry(3, uintPtr(1), "1.00", now)
	fee.TransactionType = constants.LedgerTxnTypePlatformFee
	fee.EntryType = constants.LedgerEntryTypeDebit
	entries = append(entries, fee)
	if err := repo.CreateEntries(entries); err != nil {
		t.Fatalf("create entries failed: %v", err)
	}
	if err := db.Model(&models.LedgerEntry{}).Where("id = ?", entries[0].ID).
		Update("created_at", now.Add(-48*time.Hour)).Error; err != nil {
		t.Fatalf("backdate entry failed: %v", err)
	}

	rows, total, err := repo.ListHistory(LedgerEntryListFilter{RetailerID: 3, Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	if total != 4 || len(rows) != 2 {
		t.Fatalf("history want total=4 page=2, got total=%d page=%d", total, len(rows))
	}
	if rows[0].ID < rows[1].ID {
		t.Fatalf("history should be newest first: %d before %d", rows[0].ID, rows[1].ID)
	}

	rows, total, err = repo.ListHistory(LedgerEntryListFilter{
		RetailerID:      3,
		WarehouseID:     uintPtr(1),
		TransactionType: constants.LedgerTxnTypeOrderRevenue,
	})
	if err != nil {
		t.Fatalf("list filtered history failed: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("filtered history want 2 got total=%d rows=%d", total, len(rows))
	}

	from := now.Add(-time.Hour)
	_, total, err = repo.ListHistory(LedgerEntryListFilter{RetailerID: 3, CreatedFrom: &from})
	if err != nil {
		t.Fatalf("list dated history failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("date range should exclude backdated entry, total=%d", total)
	}
}
