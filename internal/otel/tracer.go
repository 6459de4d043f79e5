// Package otel provides optional OpenTelemetry tracing and metrics for hostguard runs.
package otel

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/bc-dunia/hostguard/internal/config"
)

// ExporterType defines which exporter receives traces and metrics.
type ExporterType string

const (
	// ExporterNone disables telemetry (no-op).
	ExporterNone ExporterType = "none"
	// ExporterStdout writes telemetry to stdout (useful for debugging).
	ExporterStdout ExporterType = "stdout"
	// ExporterOTLPGRPC exports via OTLP over gRPC.
	ExporterOTLPGRPC ExporterType = "otlp-grpc"
	// ExporterOTLPHTTP exports via OTLP over HTTP.
	ExporterOTLPHTTP ExporterType = "otlp-http"
)

// Config holds configuration for tracing and metrics.
type Config struct {
	// ServiceName is the name of the service for telemetry attribution.
	ServiceName string

	// ServiceVersion is the version of the service.
	ServiceVersion string

	// ExporterType specifies which exporter to use.
	ExporterType ExporterType

	// OTLPEndpoint is the endpoint for OTLP exporters (e.g., "localhost:4317").
	OTLPEndpoint string

	// OTLPInsecure disables TLS for OTLP connections.
	OTLPInsecure bool

	// Attributes are additional resource attributes, such as the host name.
	Attributes map[string]string
}

// DefaultConfig returns a configuration with telemetry disabled.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:  "hostguard",
		ExporterType: ExporterNone,
	}
}

// ConfigFrom builds a Config from the environment-sourced settings.
func ConfigFrom(t config.Telemetry) (*Config, error) {
	cfg := DefaultConfig()
	switch ExporterType(t.Exporter) {
	case "", ExporterNone:
		cfg.ExporterType = ExporterNone
	case ExporterStdout, ExporterOTLPGRPC, ExporterOTLPHTTP:
		cfg.ExporterType = ExporterType(t.Exporter)
	default:
		return nil, fmt.Errorf("unknown exporter type: %s", t.Exporter)
	}
	cfg.OTLPEndpoint = t.Endpoint
	cfg.OTLPInsecure = t.Insecure
	return cfg, nil
}

// Enabled reports whether an exporter is configured.
func (c *Config) Enabled() bool {
	return c != nil && c.ExporterType != ExporterNone && c.ExporterType != ""
}

func (c *Config) resource() (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(c.ServiceName),
	}
	if c.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(c.ServiceVersion))
	}
	for k, v := range c.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes("", attrs...),
	)
}

// Tracer wraps the tracer provider used for one run.
type Tracer struct {
	config         *Config
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	shutdown       func(context.Context) error
	mu             sync.Mutex
}

// NewTracer creates a Tracer with the given configuration.
func NewTracer(ctx context.Context, cfg *Config) (*Tracer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	t := &Tracer{config: cfg}

	if !cfg.Enabled() {
		t.tracerProvider = noop.NewTracerProvider()
		t.tracer = t.tracerProvider.Tracer(cfg.ServiceName)
		t.shutdown = func(context.Context) error { return nil }
		return t, nil
	}

	exporter, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	res, err := cfg.resource()
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// A run is short-lived, so spans are exported synchronously on End.
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	t.tracerProvider = tp
	t.tracer = tp.Tracer(cfg.ServiceName)
	t.shutdown = tp.Shutdown
	return t, nil
}

func newSpanExporter(ctx context.Context, cfg *Config) (sdktrace.SpanExporter, error) {
	switch cfg.ExporterType {
	case ExporterStdout:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())

	case ExporterOTLPGRPC:
		opts := []otlptracegrpc.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)

	case ExporterOTLPHTTP:
		opts := []otlptracehttp.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)

	default:
		return nil, fmt.Errorf("unknown exporter type: %s", cfg.ExporterType)
	}
}

// NoopTracer returns a tracer that records nothing.
func NoopTracer() *Tracer {
	t, _ := NewTracer(context.Background(), DefaultConfig())
	return t
}

// Enabled returns whether tracing is enabled.
func (t *Tracer) Enabled() bool {
	return t.config.Enabled()
}

// StartRunSpan starts the root span covering capture, decision and action.
func (t *Tracer) StartRunSpan(ctx context.Context) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "hostguard.run")
}

// AnnotateRun attaches the captured host name to the run span.
func AnnotateRun(span trace.Span, hostname string) {
	if span == nil || hostname == "" {
		return
	}
	span.SetAttributes(attribute.String("hostguard.hostname", hostname))
}

// StartStepSpan starts a child span for one step of a run.
func (t *Tracer) StartStepSpan(ctx context.Context, step string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "hostguard."+step)
}

// Shutdown flushes and stops the tracer provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.shutdown != nil {
		return t.shutdown(ctx)
	}
	return nil
}

// RecordError marks span as failed with err.
func RecordError(span trace.Span, err error, errorType string) {
	if span == nil || err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("error.type", errorType))
}
