package config

// Default configuration values applied when the environment leaves a key unset.
const (
	DefaultSMTPServer      = "smtp.gmail.com"
	DefaultSMTPPort        = 587
	DefaultTempThreshold   = 80.0
	DefaultCPUThreshold    = 90.0
	DefaultMemoryThreshold = 90.0
	DefaultDiskThreshold   = 90.0
	DefaultTempSensorPath  = "/sys/class/thermal/thermal_zone0/temp"
	DefaultDiskPath        = "/"
	DefaultShutdownCommand = "sudo shutdown now"
	DefaultOTelExporter    = "none"

	// LogFileName is the name of the append-only log inside DIRECTORY.
	LogFileName = "monitoring.log"
)
