package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records the outcomes of the order workflow.
type OrderMetrics struct {
	placed    prometheus.Counter
	cancelled prometheus.Counter
	rejected  *prometheus.CounterVec
	totals    prometheus.Histogram
}

// NewOrderMetrics registers the order workflow metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders committed by the order workflow.",
	})
	cancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Orders reversed and deleted by the order workflow.",
	})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_rejected_total",
		Help: "Order placements rejected before commit, by reason.",
	}, []string{"reason"})
	totals := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_total_amount",
		Help:    "Distribution of committed order totals.",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 5000},
	})
	reg.MustRegister(placed, cancelled, rejected, totals)
	return &OrderMetrics{
		placed:    placed,
		cancelled: cancelled,
		rejected:  rejected,
		totals:    totals,
	}
}

// ObservePlaced counts a committed order and records its total.
func (m *OrderMetrics) ObservePlaced(total float64) {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.Inc()
	m.totals.Observe(total)
}

// IncCancelled counts a reversed order.
func (m *OrderMetrics) IncCancelled() {
	if m == nil || m.cancelled == nil {
		return
	}
	m.cancelled.Inc()
}

// IncRejected counts a placement rejected for the given reason.
func (m *OrderMetrics) IncRejected(reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
