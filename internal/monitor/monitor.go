// Package monitor runs one capture, decide and act cycle.
package monitor

import (
	"context"

	"github.com/bc-dunia/hostguard/internal/agent"
	"github.com/bc-dunia/hostguard/internal/config"
	"github.com/bc-dunia/hostguard/internal/events"
	"github.com/bc-dunia/hostguard/internal/notify"
	"github.com/bc-dunia/hostguard/internal/otel"
	"github.com/bc-dunia/hostguard/internal/power"
	"github.com/bc-dunia/hostguard/internal/threshold"
)

// Capturer produces a snapshot of host metrics.
type Capturer interface {
	Capture(ctx context.Context) agent.Snapshot
}

// Result describes what a run observed and did.
type Result struct {
	Snapshot agent.Snapshot
	Action   threshold.Action

	// NotifyErr is the swallowed notification failure, if any.
	NotifyErr error

	// PowerErr is set when the power-off command failed.
	PowerErr error

	ShutdownState power.State
}

// Monitor wires the components of a run together.
type Monitor struct {
	Reader     Capturer
	Thresholds config.Thresholds
	Notifier   notify.Notifier
	Power      power.Controller
	Log        *events.Logger
	Tracer     *otel.Tracer
	Metrics    *otel.Metrics
}

// Run executes one cycle. Notification failures never fail the run.
func (m *Monitor) Run(ctx context.Context) Result {
	log := m.Log
	if log == nil {
		log = events.NopLogger()
	}
	tracer := m.Tracer
	if tracer == nil {
		tracer = otel.NoopTracer()
	}
	metrics := m.Metrics
	if metrics == nil {
		metrics = otel.NoopMetrics()
	}

	ctx, runSpan := tracer.StartRunSpan(ctx)
	defer runSpan.End()

	captureCtx, span := tracer.StartStepSpan(ctx, "capture")
	snap := m.Reader.Capture(captureCtx)
	span.End()
	otel.AnnotateRun(runSpan, snap.Hostname)

	m.recordSnapshot(ctx, metrics, snap)

	_, span = tracer.StartStepSpan(ctx, "decide")
	action := threshold.Decide(snap, m.Thresholds)
	if breached := threshold.Breaches(snap, m.Thresholds); len(breached) > 1 {
		log.LogBreaches(breached, action.Rule)
	}
	span.End()

	log.LogDecision(action.Kind.String(), action.Subject)
	metrics.RecordAction(ctx, action.Kind.String(), action.Rule)

	res := Result{Snapshot: snap, Action: action}

	actCtx, span := tracer.StartStepSpan(ctx, "act")
	defer span.End()

	switch action.Kind {
	case threshold.KindAlert:
		res.NotifyErr = m.Notifier.Send(actCtx, action.Subject, action.Body)

	case threshold.KindShutdown:
		sd := &power.Shutdown{
			Notifier:   m.Notifier,
			Controller: m.Power,
			Log:        log,
			Hostname:   snap.Hostname,
		}
		res.NotifyErr, res.PowerErr = sd.Execute(actCtx, action.Reason)
		res.ShutdownState = sd.State()
		if res.PowerErr != nil {
			otel.RecordError(span, res.PowerErr, "power_off")
		}
	}

	if res.NotifyErr != nil {
		otel.RecordError(span, res.NotifyErr, "notify")
		metrics.RecordNotifyFailure(ctx, subjectOf(action))
	}

	return res
}

func (m *Monitor) recordSnapshot(ctx context.Context, metrics *otel.Metrics, snap agent.Snapshot) {
	if snap.Temperature != nil {
		metrics.RecordReading(ctx, "temperature", *snap.Temperature, "Cel")
	} else {
		metrics.RecordSensorFailure(ctx)
	}
	metrics.RecordReading(ctx, "cpu", snap.CPUPercent, "%")
	metrics.RecordReading(ctx, "memory", snap.MemoryPercent, "%")
	metrics.RecordReading(ctx, "disk", snap.DiskPercent, "%")
	metrics.RecordReading(ctx, "load1", snap.LoadAvg1, "1")
}

func subjectOf(a threshold.Action) string {
	if a.Kind == threshold.KindShutdown {
		return power.ShutdownSubject
	}
	return a.Subject
}
