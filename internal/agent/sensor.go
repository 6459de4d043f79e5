package agent

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// SensorError reports a thermal sensor that could not be read or parsed.
type SensorError struct {
	Path  string
	Cause error
}

func (e *SensorError) Error() string {
	return fmt.Sprintf("thermal sensor %s: %v", e.Path, e.Cause)
}

func (e *SensorError) Unwrap() error {
	return e.Cause
}

// ThermalSensor returns a temperature in Celsius.
type ThermalSensor interface {
	Celsius() (float64, error)
}

// FileSensor reads a sysfs thermal zone that reports integer millidegrees.
type FileSensor struct {
	Path string
}

// Celsius reads and converts the sensor value.
func (s FileSensor) Celsius() (float64, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return 0, &SensorError{Path: s.Path, Cause: err}
	}
	milli, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, &SensorError{Path: s.Path, Cause: err}
	}
	return float64(milli) / 1000.0, nil
}
