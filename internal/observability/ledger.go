package observability

import "github.com/prometheus/client_golang/prometheus"

// LedgerMetrics counts stock transactions and ignored batch entries.
type LedgerMetrics struct {
	transactions *prometheus.CounterVec
	skipped      *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger collectors.
func NewLedgerMetrics(registerer prometheus.Registerer) *LedgerMetrics {
	transactions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pantry_ledger_transactions_total",
		Help: "Stock transactions appended, by unit and movement type.",
	}, []string{"unit", "type"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pantry_ledger_skipped_entries_total",
		Help: "Batch entries ignored by bulk movements and stock counts.",
	}, []string{"operation", "reason"})
	registerer.MustRegister(transactions, skipped)
	return &LedgerMetrics{transactions: transactions, skipped: skipped}
}

// ObserveTransactions adds n appended transactions.
func (l *LedgerMetrics) ObserveTransactions(unitID, movementType string, n int) {
	if l == nil || n <= 0 {
		return
	}
	l.transactions.WithLabelValues(unitID, movementType).Add(float64(n))
}

// ObserveSkipped adds n skipped batch entries.
func (l *LedgerMetrics) ObserveSkipped(operation, reason string, n int) {
	if l == nil || n <= 0 {
		return
	}
	l.skipped.WithLabelValues(operation, reason).Add(float64(n))
}
