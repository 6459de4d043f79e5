package otel

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestNewMetricsDisabled(t *testing.T) {
	ctx := context.Background()

	m, err := NewMetrics(ctx, DefaultConfig())
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	defer m.Shutdown(ctx)

	if m.Enabled() {
		t.Error("expected metrics to be disabled")
	}
	m.RecordReading(ctx, "cpu", 10, "%")
	m.RecordAction(ctx, "none", "")
	m.RecordNotifyFailure(ctx, "subject")
	m.RecordSensorFailure(ctx)
}

func TestNewMetricsStdoutExporter(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.ExporterType = ExporterStdout

	m, err := NewMetrics(ctx, cfg)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	defer m.Shutdown(ctx)

	if !m.Enabled() {
		t.Error("expected metrics to be enabled")
	}
}

func TestRecordedDataPoints(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	m, err := WithManualReader(reader)
	if err != nil {
		t.Fatalf("WithManualReader failed: %v", err)
	}
	defer m.Shutdown(ctx)

	m.RecordReading(ctx, "temperature", 71.5, "Cel")
	m.RecordReading(ctx, "cpu", 95, "%")
	m.RecordAction(ctx, "alert", "cpu")
	m.RecordNotifyFailure(ctx, "High CPU Usage Alert")

	data := collect(t, reader)

	gauge, ok := data["hostguard.reading"].(metricdata.Gauge[float64])
	if !ok {
		t.Fatalf("hostguard.reading missing or wrong type: %T", data["hostguard.reading"])
	}
	if len(gauge.DataPoints) != 2 {
		t.Errorf("expected 2 reading points, got %d", len(gauge.DataPoints))
	}

	actions, ok := data["hostguard.actions"].(metricdata.Sum[int64])
	if !ok || len(actions.DataPoints) != 1 || actions.DataPoints[0].Value != 1 {
		t.Errorf("unexpected actions data: %+v", data["hostguard.actions"])
	}

	failures, ok := data["hostguard.notify.failures"].(metricdata.Sum[int64])
	if !ok || len(failures.DataPoints) != 1 {
		t.Errorf("unexpected notify failure data: %+v", data["hostguard.notify.failures"])
	}
}

func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics()
	if m.Enabled() {
		t.Error("noop metrics should be disabled")
	}
	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}
