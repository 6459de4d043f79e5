package otel

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/bc-dunia/hostguard/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Enabled() {
		t.Error("expected telemetry to be disabled by default")
	}
	if cfg.ServiceName != "hostguard" {
		t.Errorf("expected ServiceName 'hostguard', got %q", cfg.ServiceName)
	}
	if cfg.ExporterType != ExporterNone {
		t.Errorf("expected ExporterType 'none', got %q", cfg.ExporterType)
	}
}

func TestResourceCarriesAttributes(t *testing.T) {
	cfg := &Config{
		ServiceName:    "hostguard",
		ServiceVersion: "1.2.3",
		ExporterType:   ExporterStdout,
		Attributes:     map[string]string{"host.name": "pi-node"},
	}

	res, err := cfg.resource()
	if err != nil {
		t.Fatalf("resource failed: %v", err)
	}

	want := map[attribute.Key]string{
		"service.name":    "hostguard",
		"service.version": "1.2.3",
		"host.name":       "pi-node",
	}
	set := res.Set()
	for key, value := range want {
		got, ok := set.Value(key)
		if !ok {
			t.Errorf("resource missing %s", key)
			continue
		}
		if got.AsString() != value {
			t.Errorf("%s = %q, want %q", key, got.AsString(), value)
		}
	}
}

func TestConfigFrom(t *testing.T) {
	tests := []struct {
		exporter string
		want     ExporterType
		wantErr  bool
	}{
		{"", ExporterNone, false},
		{"none", ExporterNone, false},
		{"stdout", ExporterStdout, false},
		{"otlp-grpc", ExporterOTLPGRPC, false},
		{"otlp-http", ExporterOTLPHTTP, false},
		{"zipkin", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.exporter, func(t *testing.T) {
			cfg, err := ConfigFrom(config.Telemetry{Exporter: tt.exporter, Endpoint: "localhost:4317", Insecure: true})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ConfigFrom failed: %v", err)
			}
			if cfg.ExporterType != tt.want {
				t.Errorf("ExporterType = %q, want %q", cfg.ExporterType, tt.want)
			}
			if cfg.OTLPEndpoint != "localhost:4317" || !cfg.OTLPInsecure {
				t.Errorf("endpoint settings not copied: %+v", cfg)
			}
		})
	}
}

func TestNewTracerDisabled(t *testing.T) {
	ctx := context.Background()

	tracer, err := NewTracer(ctx, nil)
	if err != nil {
		t.Fatalf("NewTracer failed: %v", err)
	}
	defer tracer.Shutdown(ctx)

	if tracer.Enabled() {
		t.Error("expected tracer to be disabled")
	}

	spanCtx, span := tracer.StartRunSpan(ctx)
	defer span.End()
	if spanCtx == nil || span == nil {
		t.Fatal("expected non-nil span and context")
	}
	if span.SpanContext().IsValid() {
		t.Error("expected no-op span")
	}
}

func TestNewTracerStdout(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.ExporterType = ExporterStdout

	tracer, err := NewTracer(ctx, cfg)
	if err != nil {
		t.Fatalf("NewTracer failed: %v", err)
	}
	defer tracer.Shutdown(ctx)

	if !tracer.Enabled() {
		t.Error("expected tracer to be enabled")
	}
	_, span := tracer.StartStepSpan(ctx, "capture")
	if !span.SpanContext().IsValid() {
		t.Error("expected recording span")
	}
	span.End()
}

func TestRunSpanHierarchy(t *testing.T) {
	ctx := context.Background()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	tracer := &Tracer{
		config:         &Config{ServiceName: "test", ExporterType: ExporterStdout},
		tracerProvider: tp,
		tracer:         tp.Tracer("test"),
		shutdown:       tp.Shutdown,
	}

	runCtx, run := tracer.StartRunSpan(ctx)
	AnnotateRun(run, "pi-node")
	_, step := tracer.StartStepSpan(runCtx, "notify")
	RecordError(step, errors.New("connection refused"), "notify")
	step.End()
	run.End()

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name != "hostguard.notify" || spans[1].Name != "hostguard.run" {
		t.Errorf("unexpected span names: %q, %q", spans[0].Name, spans[1].Name)
	}
	if spans[0].Parent.SpanID() != spans[1].SpanContext.SpanID() {
		t.Error("step span is not a child of the run span")
	}
	var host string
	for _, kv := range spans[1].Attributes {
		if kv.Key == "hostguard.hostname" {
			host = kv.Value.AsString()
		}
	}
	if host != "pi-node" {
		t.Errorf("run span hostname = %q", host)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected error event on step span")
	}
}

func TestRecordErrorNilSafe(t *testing.T) {
	RecordError(nil, errors.New("x"), "y")
	_, span := NoopTracer().StartStepSpan(context.Background(), "decide")
	RecordError(span, nil, "y")
	span.End()
}
