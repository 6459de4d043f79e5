package agent

import (
	"context"
	"errors"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostSource provides the host-level metrics the reader samples.
type HostSource interface {
	CPUPercent(ctx context.Context, interval time.Duration) (float64, error)
	MemoryPercent(ctx context.Context) (float64, error)
	DiskPercent(ctx context.Context, path string) (float64, error)
	Hostname(ctx context.Context) (string, error)
	LoadAvg1(ctx context.Context) (float64, error)
}

// GopsutilSource reads host metrics through gopsutil.
type GopsutilSource struct{}

func (GopsutilSource) CPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	pcts, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return 0, err
	}
	if len(pcts) == 0 {
		return 0, errors.New("no cpu samples returned")
	}
	return pcts[0], nil
}

func (GopsutilSource) MemoryPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

func (GopsutilSource) DiskPercent(ctx context.Context, path string) (float64, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, err
	}
	return usage.UsedPercent, nil
}

func (GopsutilSource) Hostname(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", err
	}
	return info.Hostname, nil
}

func (GopsutilSource) LoadAvg1(ctx context.Context) (float64, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return avg.Load1, nil
}
