package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLedgerMetricsObserveSettlement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedgerMetrics(reg)

	m.ObserveSettlement("completed", 20*time.Millisecond, 120)
	m.ObserveSettlement("insufficient", time.Millisecond, 0)
	m.ObserveSettlement("completed", time.Millisecond, 30.5)

	if got := testutil.ToFloat64(m.settlements.WithLabelValues("completed")); got != 2 {
		t.Fatalf("completed settlements want 2 got %v", got)
	}
	if got := testutil.ToFloat64(m.settlements.WithLabelValues("insufficient")); got != 1 {
		t.Fatalf("insufficient settlements want 1 got %v", got)
	}
	if got := testutil.ToFloat64(m.settlementAmount); got != 150.5 {
		t.Fatalf("settled amount want 150.5 got %v", got)
	}
}

func TestLedgerMetricsNilSafe(t *testing.T) {
	var m *LedgerMetrics
	m.ObserveSettlement("completed", time.Second, 1)
	m.AddEntriesPosted("ORDER_REVENUE", 2)
	m.IncWorkerTask("ledger:order_entries", "ok")

	empty := NewLedgerMetrics(nil)
	empty.AddEntriesPosted("ORDER_REVENUE", 2)
}
