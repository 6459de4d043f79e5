// Package config loads the monitor configuration from the process environment.
// Values are read once at start-up and passed explicitly to every component.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LookupFunc matches os.LookupEnv so tests can supply their own environment.
type LookupFunc func(key string) (string, bool)

// Thresholds holds the limits at or above which a metric counts as breached.
type Thresholds struct {
	Temp   float64
	CPU    float64
	Memory float64
	Disk   float64
}

// SMTP holds the notification settings. The password is never logged.
type SMTP struct {
	Sender   string
	Password string
	Receiver string
	Host     string
	Port     int
}

// String renders the settings with the password redacted.
func (s SMTP) String() string {
	return fmt.Sprintf("smtp{sender=%s receiver=%s host=%s port=%d password=%s}",
		s.Sender, s.Receiver, s.Host, s.Port, redact(s.Password))
}

// LogValue keeps the password out of structured log output.
func (s SMTP) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("sender", s.Sender),
		slog.String("receiver", s.Receiver),
		slog.String("host", s.Host),
		slog.Int("port", s.Port),
	)
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "[redacted]"
}

// Telemetry selects the optional OpenTelemetry exporter.
type Telemetry struct {
	Exporter string
	Endpoint string
	Insecure bool
}

// Config is the full configuration for one run.
type Config struct {
	SMTP       SMTP
	Thresholds Thresholds
	Telemetry  Telemetry

	// Directory is the base path of the log file.
	Directory       string
	TempSensorPath  string
	DiskPath        string
	ShutdownCommand []string
}

// LogPath returns the location of the append-only monitoring log.
func (c *Config) LogPath() string {
	return filepath.Join(c.Directory, LogFileName)
}

// Error reports a missing or malformed configuration value.
type Error struct {
	Key     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Key, e.Message, e.Cause)
	}
	return fmt.Sprintf("config %s: %s", e.Key, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads configuration using lookup, applying defaults for unset keys.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	l := loader{lookup: lookup}

	cfg := &Config{
		SMTP: SMTP{
			Sender:   l.str("SENDER_EMAIL", ""),
			Password: l.str("SENDER_PASSWORD", ""),
			Receiver: l.str("RECEIVER_EMAIL", ""),
			Host:     l.str("SMTP_SERVER", DefaultSMTPServer),
			Port:     l.integer("SMTP_PORT", DefaultSMTPPort),
		},
		Thresholds: Thresholds{
			Temp:   l.float("TEMP_THRESHOLD", DefaultTempThreshold),
			CPU:    l.float("CPU_THRESHOLD", DefaultCPUThreshold),
			Memory: l.float("MEMORY_THRESHOLD", DefaultMemoryThreshold),
			Disk:   l.float("DISK_THRESHOLD", DefaultDiskThreshold),
		},
		Telemetry: Telemetry{
			Exporter: l.str("OTEL_EXPORTER", DefaultOTelExporter),
			Endpoint: l.str("OTEL_ENDPOINT", ""),
			Insecure: l.boolean("OTEL_INSECURE", false),
		},
		Directory:       l.str("DIRECTORY", "."),
		TempSensorPath:  l.str("TEMP_SENSOR_PATH", DefaultTempSensorPath),
		DiskPath:        l.str("DISK_PATH", DefaultDiskPath),
		ShutdownCommand: strings.Fields(l.str("SHUTDOWN_COMMAND", DefaultShutdownCommand)),
	}

	if l.err != nil {
		return nil, l.err
	}
	if cfg.SMTP.Port <= 0 || cfg.SMTP.Port > 65535 {
		return nil, &Error{Key: "SMTP_PORT", Message: fmt.Sprintf("port %d out of range", cfg.SMTP.Port)}
	}
	if len(cfg.ShutdownCommand) == 0 {
		return nil, &Error{Key: "SHUTDOWN_COMMAND", Message: "must not be empty"}
	}
	return cfg, nil
}

// ValidateNotification checks that the addresses needed to send email are present.
func (c *Config) ValidateNotification() error {
	if c.SMTP.Sender == "" {
		return &Error{Key: "SENDER_EMAIL", Message: "must be provided"}
	}
	if c.SMTP.Receiver == "" {
		return &Error{Key: "RECEIVER_EMAIL", Message: "must be provided"}
	}
	return nil
}

// loader keeps the first parse error so Load can report it after building the struct.
type loader struct {
	lookup LookupFunc
	err    error
}

func (l *loader) str(key, fallback string) string {
	if value, ok := l.lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func (l *loader) integer(key string, fallback int) int {
	value, ok := l.lookup(key)
	if !ok || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		l.fail(key, err)
		return fallback
	}
	return n
}

func (l *loader) float(key string, fallback float64) float64 {
	value, ok := l.lookup(key)
	if !ok || value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		l.fail(key, err)
		return fallback
	}
	return f
}

func (l *loader) boolean(key string, fallback bool) bool {
	value, ok := l.lookup(key)
	if !ok || value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		l.fail(key, err)
		return fallback
	}
	return b
}

func (l *loader) fail(key string, err error) {
	if l.err == nil {
		l.err = &Error{Key: key, Message: "invalid value", Cause: err}
	}
}
