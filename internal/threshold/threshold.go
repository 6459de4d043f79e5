// Package threshold decides what a run should do with a captured snapshot.
package threshold

import (
	"fmt"
	"strconv"

	"github.com/bc-dunia/hostguard/internal/agent"
	"github.com/bc-dunia/hostguard/internal/config"
)

// Kind is the category of action selected for a run.
type Kind int

const (
	KindNone Kind = iota
	KindAlert
	KindShutdown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAlert:
		return "alert"
	case KindShutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Action is the single outcome of a run.
type Action struct {
	Kind Kind

	// Rule names the rule that produced the action. Empty for KindNone.
	Rule string

	// Subject and Body are set for KindAlert.
	Subject string
	Body    string

	// Reason is set for KindShutdown.
	Reason string
}

// None is the action for a run with no breach.
var None = Action{Kind: KindNone}

// ShutdownReason is the reason given when the temperature limit is breached.
const ShutdownReason = "Temperature too high!"

// Rule pairs a breach predicate with the action it produces.
type Rule struct {
	Name     string
	Breached func(agent.Snapshot, config.Thresholds) bool
	Action   func(agent.Snapshot) Action
}

// Rules are evaluated in order and the first breached rule wins, so a run
// produces at most one notification even when several limits are exceeded.
// An absent temperature never matches the temperature rule.
var Rules = []Rule{
	{
		Name: "temperature",
		Breached: func(s agent.Snapshot, l config.Thresholds) bool {
			return s.Temperature != nil && *s.Temperature >= l.Temp
		},
		Action: func(agent.Snapshot) Action {
			return Action{Kind: KindShutdown, Rule: "temperature", Reason: ShutdownReason}
		},
	},
	{
		Name: "cpu",
		Breached: func(s agent.Snapshot, l config.Thresholds) bool {
			return s.CPUPercent >= l.CPU
		},
		Action: func(s agent.Snapshot) Action {
			return alert("cpu", "High CPU Usage Alert", "CPU", s.CPUPercent)
		},
	},
	{
		Name: "memory",
		Breached: func(s agent.Snapshot, l config.Thresholds) bool {
			return s.MemoryPercent >= l.Memory
		},
		Action: func(s agent.Snapshot) Action {
			return alert("memory", "High Memory Usage Alert", "Memory", s.MemoryPercent)
		},
	},
	{
		Name: "disk",
		Breached: func(s agent.Snapshot, l config.Thresholds) bool {
			return s.DiskPercent >= l.Disk
		},
		Action: func(s agent.Snapshot) Action {
			return alert("disk", "High Disk Usage Alert", "Disk", s.DiskPercent)
		},
	},
}

func alert(rule, subject, metric string, usage float64) Action {
	return Action{
		Kind:    KindAlert,
		Rule:    rule,
		Subject: subject,
		Body:    metric + " usage is too high! Current usage: " + strconv.FormatFloat(usage, 'f', -1, 64) + "%",
	}
}

// Decide returns the action of the first breached rule, or None.
func Decide(s agent.Snapshot, l config.Thresholds) Action {
	for _, r := range Rules {
		if r.Breached(s, l) {
			return r.Action(s)
		}
	}
	return None
}

// Breaches lists the names of every breached rule in priority order.
// It is informational; Decide alone selects the action.
func Breaches(s agent.Snapshot, l config.Thresholds) []string {
	var names []string
	for _, r := range Rules {
		if r.Breached(s, l) {
			names = append(names, r.Name)
		}
	}
	return names
}
