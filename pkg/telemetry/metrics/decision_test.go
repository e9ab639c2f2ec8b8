package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDecisionMetrics_RecordPass(t *testing.T) {
	registry := prometheus.NewRegistry()
	dm := NewDecisionMetrics("ganymede", "engine", registry)

	dm.RecordPass("maintenance", "succeeded", 5*time.Microsecond)
	dm.RecordPass("maintenance", "succeeded", 7*time.Microsecond)
	dm.RecordPass("maintenance", "failed", time.Microsecond)

	got := testutil.ToFloat64(dm.passesTotal.WithLabelValues("maintenance", "succeeded"))
	if got != 2 {
		t.Errorf("passes_total{succeeded} = %v, want 2", got)
	}
	got = testutil.ToFloat64(dm.passesTotal.WithLabelValues("maintenance", "failed"))
	if got != 1 {
		t.Errorf("passes_total{failed} = %v, want 1", got)
	}
}

func TestDecisionMetrics_WaitingGauge(t *testing.T) {
	registry := prometheus.NewRegistry()
	dm := NewDecisionMetrics("ganymede", "engine", registry)

	dm.RecordDeferral("maintenance")
	dm.RecordDeferral("maintenance")
	if got := testutil.ToFloat64(dm.waitingContexts); got != 2 {
		t.Errorf("waiting_contexts = %v, want 2", got)
	}

	dm.RecordWakeup("maintenance", "change")
	if got := testutil.ToFloat64(dm.waitingContexts); got != 1 {
		t.Errorf("waiting_contexts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(dm.wakeupsTotal.WithLabelValues("maintenance", "change")); got != 1 {
		t.Errorf("wakeups_total{change} = %v, want 1", got)
	}
}

func TestHandler_Serves(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewDecisionMetrics("ganymede", "engine", registry)

	if Handler(registry) == nil {
		t.Fatal("Handler returned nil")
	}
}
