package metrics

import "github.com/prometheus/client_golang/prometheus"

// WorkflowMetrics exposes counters/histograms for the visit workflow.
type WorkflowMetrics struct {
	visitTransitions  *prometheus.CounterVec
	prescriptionSaves *prometheus.CounterVec
	deliveryTotal     *prometheus.CounterVec
	deliveryLatency   *prometheus.HistogramVec
}

func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	m := &WorkflowMetrics{
		visitTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "visits",
			Name:      "transitions_total",
			Help:      "Total visit status transitions",
		}, []string{"from", "to"}),
		prescriptionSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "prescriptions",
			Name:      "saves_total",
			Help:      "Total prescription saves by action",
		}, []string{"action", "status"}),
		deliveryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "delivery",
			Name:      "dispatch_total",
			Help:      "Total terminal actions by channel",
		}, []string{"channel", "status"}),
		deliveryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinicdesk",
			Subsystem: "delivery",
			Name:      "dispatch_latency_seconds",
			Help:      "Latency of terminal actions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"channel"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.visitTransitions, m.prescriptionSaves, m.deliveryTotal, m.deliveryLatency)
	return m
}

func (m *WorkflowMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.visitTransitions.WithLabelValues(from, to).Inc()
}

func (m *WorkflowMetrics) ObserveSave(action, status string) {
	if m == nil {
		return
	}
	m.prescriptionSaves.WithLabelValues(action, status).Inc()
}

func (m *WorkflowMetrics) ObserveDispatch(channel, status string) {
	if m == nil {
		return
	}
	m.deliveryTotal.WithLabelValues(channel, status).Inc()
}

func (m *WorkflowMetrics) ObserveDispatchLatency(channel string, seconds float64) {
	if m == nil {
		return
	}
	m.deliveryLatency.WithLabelValues(channel).Observe(seconds)
}
