package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

const (
	OutcomeOK           = "ok"
	OutcomePrecondition = "precondition_failed"
	OutcomeNotFound     = "not_found"
	OutcomeValidation   = "validation_error"
	OutcomeStorage      = "storage_error"
)

// Metrics exposes application-level instruments for the bookkeeping core.
type Metrics struct {
	operations      *prometheus.CounterVec
	ledgerApplies   *prometheus.CounterVec
	broadcastSends  *prometheus.CounterVec
	reconcileRuns   prometheus.Counter
	registeredSlots prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		operations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lendora_operations_total",
			Help: "Transaction processor executions by operation and outcome.",
		}, []string{"operation", "outcome"}),
		ledgerApplies: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lendora_ledger_applies_total",
			Help: "Ledger delta applications by category.",
		}, []string{"category"}),
		broadcastSends: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lendora_broadcast_sends_total",
			Help: "Scheduled broadcast deliveries by status.",
		}, []string{"status"}),
		reconcileRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lendora_broadcast_reconciles_total",
			Help: "Full rebuilds of the broadcast job registry.",
		}),
		registeredSlots: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lendora_broadcast_registered_slots",
			Help: "Broadcast slots currently registered with the scheduler.",
		}),
	}
}

func (m *Metrics) RecordOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) RecordLedgerApply(category string) {
	if m == nil {
		return
	}
	m.ledgerApplies.WithLabelValues(category).Inc()
}

func (m *Metrics) RecordBroadcastSend(status string) {
	if m == nil {
		return
	}
	m.broadcastSends.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordReconcile(slots int) {
	if m == nil {
		return
	}
	m.reconcileRuns.Inc()
	m.registeredSlots.Set(float64(slots))
}

var Module = fx.Module("observability.metrics",
	fx.Provide(New),
)
