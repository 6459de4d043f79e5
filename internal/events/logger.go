// Package events writes the monitor's append-only log.
package events

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

// Logger records readings, decisions and failures for one run.
type Logger struct {
	logger *slog.Logger
	closer io.Closer
}

// Open creates the parent directory if needed and opens path in append mode,
// so successive runs never truncate earlier history. When mirror is non-nil
// every line is also written to it.
func Open(path string, mirror io.Writer) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	var w io.Writer = f
	if mirror != nil {
		w = io.MultiWriter(f, mirror)
	}
	l := NewLoggerWithWriter(w)
	l.closer = f
	return l, nil
}

// NewLoggerWithWriter creates a Logger writing text lines to w.
// Useful for testing or redirecting output.
func NewLoggerWithWriter(w io.Writer) *Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &Logger{logger: slog.New(handler)}
}

// NopLogger returns a logger that discards everything.
func NopLogger() *Logger {
	return NewLoggerWithWriter(io.Discard)
}

// Close closes the underlying log file, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Slog exposes the underlying structured logger.
func (l *Logger) Slog() *slog.Logger {
	return l.logger
}

// LogReading logs one captured metric.
func (l *Logger) LogReading(metric string, value float64, unit string) {
	l.logger.Info(metric+": "+strconv.FormatFloat(value, 'f', -1, 64)+unit,
		"metric", metric,
		"value", value,
	)
}

// LogMissingReading logs a metric that could not be captured.
func (l *Logger) LogMissingReading(metric string) {
	l.logger.Info(fmt.Sprintf("%s: absent", metric),
		"metric", metric,
	)
}

// LogSensorError logs a failed temperature read.
func (l *Logger) LogSensorError(err error) {
	l.logger.Error(fmt.Sprintf("Error reading temperature: %v", err))
}

// LogMetricError logs a failed CPU, memory or disk read.
func (l *Logger) LogMetricError(metric string, err error) {
	l.logger.Error(fmt.Sprintf("Error reading %s: %v", metric, err), "metric", metric)
}

// LogHostInfoError logs a failed read of supplementary host details.
func (l *Logger) LogHostInfoError(what string, err error) {
	l.logger.Warn(fmt.Sprintf("Error reading %s: %v", what, err))
}

// LogBreaches logs every breached rule when more than one fired at once.
// Only the highest-priority breach produces an action.
func (l *Logger) LogBreaches(rules []string, acted string) {
	l.logger.Warn("Multiple thresholds breached",
		"breached", rules,
		"acted_on", acted,
	)
}

// LogDecision logs the action selected for the run.
func (l *Logger) LogDecision(kind, subject string) {
	if subject == "" {
		l.logger.Info("Decision: " + kind)
		return
	}
	l.logger.Info("Decision: "+kind, "subject", subject)
}

// LogEmailSent logs a delivered notification.
func (l *Logger) LogEmailSent(subject string) {
	l.logger.Info("Alert email sent!", "subject", subject)
}

// LogEmailFailed logs a notification that could not be delivered.
func (l *Logger) LogEmailFailed(subject string, err error) {
	l.logger.Error(fmt.Sprintf("Failed to send email: %v", err), "subject", subject)
}

// LogShutdown logs the reason for an emergency power-off.
func (l *Logger) LogShutdown(reason string) {
	l.logger.Error("Shutting down due to: " + reason)
}

// LogPowerOffFailed logs a failed power-off command.
func (l *Logger) LogPowerOffFailed(err error) {
	l.logger.Error(fmt.Sprintf("Power-off command failed: %v", err))
}

// LogDryRun logs an action that was suppressed by dry-run mode.
func (l *Logger) LogDryRun(action string) {
	l.logger.Info("Dry run: skipped " + action)
}
