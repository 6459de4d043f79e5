// Package power performs the emergency shutdown sequence.
package power

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/bc-dunia/hostguard/internal/events"
	"github.com/bc-dunia/hostguard/internal/notify"
)

// ShutdownSubject is the subject of the email sent before powering off.
const ShutdownSubject = "Host Shutdown Alert"

// Controller powers off the host.
type Controller interface {
	PowerOff(ctx context.Context) error
}

// CommandController runs a privileged command such as "sudo shutdown now".
type CommandController struct {
	Command []string
}

// PowerOff runs the configured command and waits for it to exit.
func (c CommandController) PowerOff(ctx context.Context) error {
	if len(c.Command) == 0 {
		return fmt.Errorf("no power-off command configured")
	}
	out, err := exec.CommandContext(ctx, c.Command[0], c.Command[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", strings.Join(c.Command, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Recorder counts power-off requests without touching the host.
type Recorder struct {
	mu    sync.Mutex
	calls int
	Err   error
}

// PowerOff records the call and returns Err.
func (r *Recorder) PowerOff(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.Err
}

// Calls returns how many times PowerOff was invoked.
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// DryRun logs the power-off instead of performing it.
type DryRun struct {
	Log *events.Logger
}

// PowerOff logs the skipped command.
func (d DryRun) PowerOff(context.Context) error {
	if d.Log != nil {
		d.Log.LogDryRun("power-off")
	}
	return nil
}

// State tracks how far the shutdown sequence has progressed.
type State int

const (
	StateIdle State = iota
	StateNotifyAttempted
	StatePoweredOff
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNotifyAttempted:
		return "notify_attempted"
	case StatePoweredOff:
		return "powered_off"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Shutdown notifies and then powers off the host.
type Shutdown struct {
	Notifier   notify.Notifier
	Controller Controller
	Log        *events.Logger
	Hostname   string

	state State
}

// State returns the current step of the sequence.
func (s *Shutdown) State() State {
	return s.state
}

// Execute logs reason, makes one notification attempt and then issues the
// power-off command regardless of the notification outcome. It returns the
// notification error (if any) and the power-off error (if any).
func (s *Shutdown) Execute(ctx context.Context, reason string) (notifyErr, powerErr error) {
	log := s.Log
	if log == nil {
		log = events.NopLogger()
	}

	log.LogShutdown(reason)

	notifyErr = s.Notifier.Send(ctx, ShutdownSubject, s.body(reason))
	s.state = StateNotifyAttempted

	powerErr = s.Controller.PowerOff(ctx)
	if powerErr != nil {
		log.LogPowerOffFailed(powerErr)
		return notifyErr, powerErr
	}
	s.state = StatePoweredOff
	return notifyErr, nil
}

func (s *Shutdown) body(reason string) string {
	host := s.Hostname
	if host == "" {
		host = "host"
	}
	return fmt.Sprintf("Your host %s is shutting down because: %s", host, reason)
}
