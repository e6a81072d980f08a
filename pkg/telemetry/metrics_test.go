package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/attribute"
)

func metricValue(t *testing.T, c prometheus.Metric) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("metric Write() error: %v", err)
	}
	if m.Counter != nil {
		return m.GetCounter().GetValue()
	}
	return m.GetGauge().GetValue()
}

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))

	m.RecordRender("counter", true, time.Millisecond, nil)
	m.RecordRender("counter", false, time.Millisecond, nil)
	m.RecordRender("counter", false, time.Millisecond, errors.New("boom"))
	m.RecordEdit("insert")
	m.RecordEdit("insert")
	m.RecordSkip("remove")
	m.RecordEmit("clicked", 3)
	m.RecordStoreWrite("cart")
	m.WidgetAttached()
	m.WidgetAttached()
	m.WidgetDetached()
	m.ClientConnected()

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"full renders", metricValue(t, m.renders.WithLabelValues("counter", "full")), 1},
		{"incremental renders", metricValue(t, m.renders.WithLabelValues("counter", "incremental")), 2},
		{"render errors", metricValue(t, m.renderErrors.WithLabelValues("counter")), 1},
		{"edits", metricValue(t, m.edits.WithLabelValues("insert")), 2},
		{"skipped", metricValue(t, m.skippedEdits.WithLabelValues("remove")), 1},
		{"emits", metricValue(t, m.emits.WithLabelValues("clicked")), 1},
		{"deliveries", metricValue(t, m.deliveries.WithLabelValues("clicked")), 3},
		{"store writes", metricValue(t, m.storeWrites.WithLabelValues("cart")), 1},
		{"widgets", metricValue(t, m.widgets), 1},
		{"clients", metricValue(t, m.clients), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "test_render_duration_seconds" {
			found = true
			if got := f.GetMetric()[0].GetHistogram().GetSampleCount(); got != 3 {
				t.Errorf("render duration samples = %d, want 3", got)
			}
		}
	}
	if !found {
		t.Error("render duration histogram not registered")
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordRender("w", true, time.Second, nil)
	m.RecordEdit("insert")
	m.RecordSkip("insert")
	m.RecordEmit("s", 1)
	m.RecordStoreWrite("ns")
	m.WidgetAttached()
	m.WidgetDetached()
	m.ClientConnected()
	m.ClientDisconnected()
}

func TestSpansWithoutProvider(t *testing.T) {
	ctx, span := StartRender(context.Background(), "w", true)
	if ctx == nil {
		t.Fatal("StartRender returned nil context")
	}
	End(span, nil, attribute.Int("plain.edits", 2))

	_, span = StartEvent(context.Background(), "w", "click")
	End(span, errors.New("boom"))
}
