package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters the gate and checkout flows report. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	gateOutcomes  *prometheus.CounterVec
	checkouts     *prometheus.CounterVec
	itemScans     *prometheus.CounterVec
	aiParseErrors prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	m := &Metrics{
		gateOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scannimart",
			Name:      "gate_outcomes_total",
			Help:      "Exit gate submissions by outcome.",
		}, []string{"outcome"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scannimart",
			Name:      "checkouts_total",
			Help:      "Checkout attempts by result.",
		}, []string{"result", "payment_method"}),
		itemScans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scannimart",
			Name:      "gate_item_scans_total",
			Help:      "Item audit scans by result.",
		}, []string{"result"}),
		aiParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scannimart",
			Name:      "ai_parse_failures_total",
			Help:      "Model responses that could not be parsed.",
		}),
	}
	reg.MustRegister(m.gateOutcomes, m.checkouts, m.itemScans, m.aiParseErrors)
	return m
}

func (m *Metrics) GateOutcome(outcome string) {
	if m == nil {
		return
	}
	m.gateOutcomes.WithLabelValues(label(outcome)).Inc()
}

func (m *Metrics) Checkout(result, paymentMethod string) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(label(result), label(paymentMethod)).Inc()
}

func (m *Metrics) ItemScan(result string) {
	if m == nil {
		return
	}
	m.itemScans.WithLabelValues(label(result)).Inc()
}

func (m *Metrics) AIParseFailure() {
	if m == nil {
		return
	}
	m.aiParseErrors.Inc()
}

func label(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
