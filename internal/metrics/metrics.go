package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ledger"

// LedgerMetrics 账本与结算指标，nil 接收者上的方法均为空操作
type LedgerMetrics struct {
	settlements        *prometheus.CounterVec
	settlementAmount   prometheus.Counter
	settlementDuration *prometheus.HistogramVec
	entriesPosted      *prometheus.CounterVec
	workerTasks        *prometheus.CounterVec
}

// NewLedgerMetrics 在给定 Registerer 上注册指标
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	m := &LedgerMetrics{
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Settlement executions by result.",
		}, []string{"result"}),
		settlementAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_amount_total",
			Help:      "Total amount paid out by completed settlements.",
		}),
		settlementDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_duration_seconds",
			Help:      "Settlement execution latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		entriesPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_posted_total",
			Help:      "Ledger entries written by transaction type.",
		}, []string{"transaction_type"}),
		workerTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_tasks_total",
			Help:      "Async ledger tasks processed by task type and result.",
		}, []string{"task", "result"}),
	}
	reg.MustRegister(m.settlements, m.settlementAmount, m.settlementDuration, m.entriesPosted, m.workerTasks)
	return m
}

// ObserveSettlement 记录一次结算执行
func (m *LedgerMetrics) ObserveSettlement(result string, duration time.Duration, amount float64) {
	if m == nil || m.settlements == nil {
		return
	}
	label := normalizeLabel(result)
	m.settlements.WithLabelValues(label).Inc()
	m.settlementDuration.WithLabelValues(label).Observe(duration.Seconds())
	if amount > 0 {
		m.settlementAmount.Add(amount)
	}
}

// AddEntriesPosted 记录写入的账本条目数
func (m *LedgerMetrics) AddEntriesPosted(transactionType string, count int) {
	if m == nil || m.entriesPosted == nil || count <= 0 {
		return
	}
	m.entriesPosted.WithLabelValues(normalizeLabel(transactionType)).Add(float64(count))
}

// IncWorkerTask 记录异步任务处理结果
func (m *LedgerMetrics) IncWorkerTask(task, result string) {
	if m == nil || m.workerTasks == nil {
		return
	}
	m.workerTasks.WithLabelValues(normalizeLabel(task), normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
