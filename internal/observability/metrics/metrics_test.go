package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveTransition(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWorkflowMetrics(reg)

	m.ObserveTransition("WAITING", "IN_PROGRESS")
	m.ObserveTransition("WAITING", "IN_PROGRESS")
	m.ObserveTransition("IN_PROGRESS", "COMPLETED")

	got := testutil.ToFloat64(m.visitTransitions.WithLabelValues("WAITING", "IN_PROGRESS"))
	if got != 2 {
		t.Errorf("expected 2 WAITING->IN_PROGRESS transitions, got %v", got)
	}
}

func TestObserveSave(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWorkflowMetrics(reg)

	m.ObserveSave("create", "ok")
	m.ObserveSave("update", "ok")
	m.ObserveSave("update", "ok")

	if got := testutil.ToFloat64(m.prescriptionSaves.WithLabelValues("update", "ok")); got != 2 {
		t.Errorf("expected 2 updates, got %v", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *WorkflowMetrics

	// Must not panic when metrics are not wired.
	m.ObserveTransition("WAITING", "IN_PROGRESS")
	m.ObserveSave("create", "ok")
	m.ObserveDispatch("whatsapp", "ok")
	m.ObserveDispatchLatency("whatsapp", 0.1)
}
