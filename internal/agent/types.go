// Package agent captures a one-shot snapshot of host metrics.
// The snapshot is logged and evaluated, then discarded; nothing is persisted.
package agent

import "time"

// Snapshot contains the metrics captured in one run.
type Snapshot struct {
	// Temperature is the CPU temperature in Celsius. Nil when the sensor
	// could not be read, which means the temperature check is skipped.
	Temperature *float64

	// CPUPercent is the overall CPU usage percentage (0-100) over the sampling window.
	CPUPercent float64

	// MemoryPercent is the share of physical memory in use (0-100).
	MemoryPercent float64

	// DiskPercent is the share of the monitored filesystem in use (0-100).
	DiskPercent float64

	// Hostname and LoadAvg1 are informational only and never drive a decision.
	Hostname string
	LoadAvg1 float64

	CapturedAt time.Time
}

// HasTemperature reports whether a temperature reading is present.
func (s Snapshot) HasTemperature() bool {
	return s.Temperature != nil
}

// Celsius is a helper for building snapshots with a present temperature.
func Celsius(v float64) *float64 {
	return &v
}
