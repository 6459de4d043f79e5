package agent

import (
	"context"
	"time"

	"github.com/bc-dunia/hostguard/internal/events"
)

// DefaultCPUInterval is the blocking window used to sample CPU usage.
const DefaultCPUInterval = time.Second

// Reader captures a Snapshot from the host.
type Reader struct {
	Sensor      ThermalSensor
	Host        HostSource
	DiskPath    string
	CPUInterval time.Duration
	Log         *events.Logger

	now func() time.Time
}

// NewReader creates a reader backed by the given sysfs sensor path and gopsutil.
func NewReader(sensorPath, diskPath string, log *events.Logger) *Reader {
	return &Reader{
		Sensor:      FileSensor{Path: sensorPath},
		Host:        GopsutilSource{},
		DiskPath:    diskPath,
		CPUInterval: DefaultCPUInterval,
		Log:         log,
		now:         time.Now,
	}
}

// Capture reads every metric once and logs the readings.
// Read failures are logged and never abort the capture: a missing temperature
// is reported as absent, other failed metrics as zero.
func (r *Reader) Capture(ctx context.Context) Snapshot {
	log := r.Log
	if log == nil {
		log = events.NopLogger()
	}
	now := r.now
	if now == nil {
		now = time.Now
	}

	snap := Snapshot{CapturedAt: now()}

	if temp, err := r.Sensor.Celsius(); err != nil {
		log.LogSensorError(err)
	} else {
		snap.Temperature = Celsius(temp)
	}

	interval := r.CPUInterval
	if interval <= 0 {
		interval = DefaultCPUInterval
	}
	if v, err := r.Host.CPUPercent(ctx, interval); err != nil {
		log.LogMetricError("cpu usage", err)
	} else {
		snap.CPUPercent = v
	}

	if v, err := r.Host.MemoryPercent(ctx); err != nil {
		log.LogMetricError("memory usage", err)
	} else {
		snap.MemoryPercent = v
	}

	diskPath := r.DiskPath
	if diskPath == "" {
		diskPath = "/"
	}
	if v, err := r.Host.DiskPercent(ctx, diskPath); err != nil {
		log.LogMetricError("disk usage", err)
	} else {
		snap.DiskPercent = v
	}

	if name, err := r.Host.Hostname(ctx); err != nil {
		log.LogHostInfoError("hostname", err)
	} else {
		snap.Hostname = name
	}
	if v, err := r.Host.LoadAvg1(ctx); err != nil {
		log.LogHostInfoError("load average", err)
	} else {
		snap.LoadAvg1 = v
	}

	if snap.Temperature != nil {
		log.LogReading("Temperature", *snap.Temperature, "°C")
	} else {
		log.LogMissingReading("Temperature")
	}
	log.LogReading("CPU Usage", snap.CPUPercent, "%")
	log.LogReading("Memory Usage", snap.MemoryPercent, "%")
	log.LogReading("Disk Usage", snap.DiskPercent, "%")

	return snap
}
