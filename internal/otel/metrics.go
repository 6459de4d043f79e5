package otel

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics records the readings and outcome of a run.
type Metrics struct {
	config        *Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	shutdown      func(context.Context) error
	mu            sync.Mutex

	reading        metric.Float64Gauge
	actions        metric.Int64Counter
	notifyFailures metric.Int64Counter
	sensorFailures metric.Int64Counter
}

// NewMetrics creates a Metrics instance with the given configuration.
func NewMetrics(ctx context.Context, cfg *Config) (*Metrics, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	m := &Metrics{config: cfg}

	if !cfg.Enabled() {
		m.meterProvider = sdkmetric.NewMeterProvider()
		m.meter = m.meterProvider.Meter(cfg.ServiceName)
		m.shutdown = func(context.Context) error { return nil }
		return m, nil
	}

	exporter, err := newMetricExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics exporter: %w", err)
	}

	res, err := cfg.resource()
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics resource: %w", err)
	}

	// The periodic reader flushes on Shutdown, which every run calls on exit.
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)

	m.meterProvider = mp
	m.meter = mp.Meter(cfg.ServiceName)
	m.shutdown = mp.Shutdown

	if err := m.registerInstruments(); err != nil {
		return nil, fmt.Errorf("failed to register metric instruments: %w", err)
	}

	return m, nil
}

func newMetricExporter(ctx context.Context, cfg *Config) (sdkmetric.Exporter, error) {
	switch cfg.ExporterType {
	case ExporterStdout:
		return stdoutmetric.New()

	case ExporterOTLPGRPC:
		opts := []otlpmetricgrpc.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		return otlpmetricgrpc.New(ctx, opts...)

	case ExporterOTLPHTTP:
		opts := []otlpmetrichttp.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		return otlpmetrichttp.New(ctx, opts...)

	default:
		return nil, fmt.Errorf("unknown exporter type: %s", cfg.ExporterType)
	}
}

func (m *Metrics) registerInstruments() error {
	var err error

	m.reading, err = m.meter.Float64Gauge(
		"hostguard.reading",
		metric.WithDescription("Latest value of a monitored host metric"),
	)
	if err != nil {
		return fmt.Errorf("failed to create reading gauge: %w", err)
	}

	m.actions, err = m.meter.Int64Counter(
		"hostguard.actions",
		metric.WithDescription("Count of actions taken by kind and rule"),
	)
	if err != nil {
		return fmt.Errorf("failed to create action counter: %w", err)
	}

	m.notifyFailures, err = m.meter.Int64Counter(
		"hostguard.notify.failures",
		metric.WithDescription("Count of notifications that could not be delivered"),
	)
	if err != nil {
		return fmt.Errorf("failed to create notify failure counter: %w", err)
	}

	m.sensorFailures, err = m.meter.Int64Counter(
		"hostguard.sensor.failures",
		metric.WithDescription("Count of runs without a temperature reading"),
	)
	if err != nil {
		return fmt.Errorf("failed to create sensor failure counter: %w", err)
	}

	return nil
}

// RecordReading records one captured metric, e.g. ("cpu", 42.5, "%").
func (m *Metrics) RecordReading(ctx context.Context, name string, value float64, unit string) {
	if m.reading == nil {
		return
	}
	m.reading.Record(ctx, value, metric.WithAttributes(
		attribute.String("metric", name),
		attribute.String("unit", unit),
	))
}

// RecordSensorFailure counts a run whose temperature was absent.
func (m *Metrics) RecordSensorFailure(ctx context.Context) {
	if m.sensorFailures == nil {
		return
	}
	m.sensorFailures.Add(ctx, 1)
}

// RecordAction counts the action selected for a run.
func (m *Metrics) RecordAction(ctx context.Context, kind, rule string) {
	if m.actions == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("kind", kind)}
	if rule != "" {
		attrs = append(attrs, attribute.String("rule", rule))
	}
	m.actions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordNotifyFailure counts an undelivered notification.
func (m *Metrics) RecordNotifyFailure(ctx context.Context, subject string) {
	if m.notifyFailures == nil {
		return
	}
	m.notifyFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("subject", subject)))
}

// Enabled returns whether metrics are exported.
func (m *Metrics) Enabled() bool {
	return m.config.Enabled()
}

// Shutdown flushes pending metrics and stops the provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shutdown != nil {
		return m.shutdown(ctx)
	}
	return nil
}

// NoopMetrics returns a metrics instance that does nothing (for testing or when disabled).
func NoopMetrics() *Metrics {
	cfg := DefaultConfig()
	mp := sdkmetric.NewMeterProvider()
	return &Metrics{
		config:        cfg,
		meterProvider: mp,
		meter:         mp.Meter(cfg.ServiceName),
		shutdown:      func(context.Context) error { return nil },
	}
}

// WithManualReader builds an enabled Metrics backed by reader. Tests use it
// to collect recorded data points without an exporter.
func WithManualReader(reader sdkmetric.Reader) (*Metrics, error) {
	cfg := DefaultConfig()
	cfg.ExporterType = ExporterStdout
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m := &Metrics{
		config:        cfg,
		meterProvider: mp,
		meter:         mp.Meter(cfg.ServiceName),
		shutdown:      mp.Shutdown,
	}
	if err := m.registerInstruments(); err != nil {
		return nil, err
	}
	return m, nil
}
