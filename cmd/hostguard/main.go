package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bc-dunia/hostguard/internal/agent"
	"github.com/bc-dunia/hostguard/internal/config"
	"github.com/bc-dunia/hostguard/internal/events"
	"github.com/bc-dunia/hostguard/internal/monitor"
	"github.com/bc-dunia/hostguard/internal/notify"
	"github.com/bc-dunia/hostguard/internal/otel"
	"github.com/bc-dunia/hostguard/internal/power"
)

const version = "1.0.0"

func main() {
	envFile := flag.String("env-file", ".env", "Dotenv file loaded before reading the environment (missing file is ignored)")
	dryRun := flag.Bool("dry-run", false, "Log alerts and shutdowns instead of sending email or powering off")
	logStderr := flag.Bool("log-stderr", false, "Mirror log lines to stderr")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("hostguard", version)
		return
	}

	if err := loadEnvFile(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	telemetryCfg, err := telemetryConfig(cfg.Telemetry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var mirror io.Writer
	if *logStderr {
		mirror = os.Stderr
	}
	log, err := events.Open(cfg.LogPath(), mirror)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	m, err := buildMonitor(cfg, *dryRun, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		log.Close()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracer, err := otel.NewTracer(ctx, telemetryCfg)
	if err != nil {
		log.Slog().Warn("tracing disabled", "error", err)
		tracer = otel.NoopTracer()
	}
	metrics, err := otel.NewMetrics(ctx, telemetryCfg)
	if err != nil {
		log.Slog().Warn("metrics disabled", "error", err)
		metrics = otel.NoopMetrics()
	}
	m.Tracer = tracer
	m.Metrics = metrics

	m.Run(ctx)

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tracer.Shutdown(flushCtx); err != nil {
		log.Slog().Warn("failed to flush traces", "error", err)
	}
	if err := metrics.Shutdown(flushCtx); err != nil {
		log.Slog().Warn("failed to flush metrics", "error", err)
	}
}

// telemetryConfig maps the environment settings onto the exporter config and
// tags the resource with this binary's version and host name.
func telemetryConfig(t config.Telemetry) (*otel.Config, error) {
	cfg, err := otel.ConfigFrom(t)
	if err != nil {
		return nil, err
	}
	cfg.ServiceVersion = version
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		cfg.Attributes = map[string]string{"host.name": hostname}
	}
	return cfg, nil
}

// buildMonitor selects the notifier and power controller for the run. A dry
// run only logs; a real run needs both email addresses.
func buildMonitor(cfg *config.Config, dryRun bool, log *events.Logger) (*monitor.Monitor, error) {
	m := &monitor.Monitor{
		Reader:     agent.NewReader(cfg.TempSensorPath, cfg.DiskPath, log),
		Thresholds: cfg.Thresholds,
		Log:        log,
	}
	if dryRun {
		m.Notifier = notify.Nop{Log: log}
		m.Power = power.DryRun{Log: log}
		return m, nil
	}

	if err := cfg.ValidateNotification(); err != nil {
		return nil, err
	}
	m.Notifier = notify.NewSMTPNotifier(cfg.SMTP, log)
	m.Power = power.CommandController{Command: cfg.ShutdownCommand}
	return m, nil
}

// loadEnvFile applies a dotenv file without overriding variables already set
// in the process environment.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
