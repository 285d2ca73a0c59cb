package source

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"codeberg.org/mutker/hwtop/internal/errors"
	"codeberg.org/mutker/hwtop/internal/metric"
)

const (
	CPUPackageID = metric.DeviceID("cpu")

	cpufreqMaxPath = "/sys/devices/system/cpu/cpu%d/cpufreq/cpuinfo_max_freq"
	kilohertzToMHz = 1000
)

// CoreID returns the device ID for one logical core.
func CoreID(index int) metric.DeviceID {
	return metric.DeviceID(fmt.Sprintf("cpu:core:%d", index))
}

// CPUAdapter reads package and per-core utilization and core frequencies.
// Utilization comes from gopsutil's cumulative /proc/stat counters, so each
// poll reports usage since the previous poll. Current core frequency comes
// from gopsutil CPU info; the per-core frequency ceiling is read once from
// sysfs cpufreq at enumeration.
type CPUAdapter struct {
	pkg   metric.Device
	cores []metric.Device
}

// NewCPU enumerates the CPU. The first utilization sample is taken here so
// the first tick's poll already has a delta base.
func NewCPU(ctx context.Context) (*CPUAdapter, error) {
	count, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return nil, errors.Wrap(ErrEnumerationFailed, err)
	}
	if count == 0 {
		return nil, errors.New(ErrNoDevices)
	}

	name := fmt.Sprintf("CPU x%d", count)
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		name = cleanCPUBrand(infos[0].ModelName)
	}

	a := &CPUAdapter{
		pkg: metric.Device{
			ID:     CPUPackageID,
			Vendor: metric.VendorCPU,
			Name:   name,
			Caps:   []metric.Kind{metric.Utilization},
		},
	}

	for i := 0; i < count; i++ {
		core := metric.Device{
			ID:     CoreID(i),
			Vendor: metric.VendorCPU,
			Index:  i,
			Name:   fmt.Sprintf("Core %d", i),
			Caps:   []metric.Kind{metric.Utilization, metric.FrequencyCore},
		}
		if maxMHz := coreMaxMHz(i); maxMHz > 0 {
			core.Limits = map[metric.Kind]float64{metric.FrequencyCore: maxMHz}
		}
		a.cores = append(a.cores, core)
	}

	// Prime the delta counters for both the package and per-core series.
	_, _ = cpu.PercentWithContext(ctx, 0, false)
	_, _ = cpu.PercentWithContext(ctx, 0, true)

	return a, nil
}

func (a *CPUAdapter) Name() string {
	return "cpu"
}

func (a *CPUAdapter) Devices() []metric.Device {
	devices := make([]metric.Device, 0, len(a.cores)+1)
	devices = append(devices, a.pkg)
	devices = append(devices, a.cores...)

	return devices
}

func (a *CPUAdapter) Poll(ctx context.Context) ([]metric.Reading, error) {
	at := time.Now()
	var readings []metric.Reading

	total, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, errors.Wrap(ErrBackendUnreachable, err)
	}
	if len(total) > 0 {
		readings = append(readings, metric.NewReading(a.pkg.ID, metric.Utilization, total[0], at))
	} else {
		readings = append(readings, metric.Unavailable(a.pkg.ID, metric.Utilization, at))
	}

	perCore, err := cpu.PercentWithContext(ctx, 0, true)
	for i, core := range a.cores {
		if err == nil && i < len(perCore) {
			readings = append(readings, metric.NewReading(core.ID, metric.Utilization, perCore[i], at))
		} else {
			readings = append(readings, metric.Unavailable(core.ID, metric.Utilization, at))
		}
	}

	freqs := coreFrequencies(ctx, len(a.cores))
	for i, core := range a.cores {
		if mhz, ok := freqs[i]; ok {
			readings = append(readings, metric.NewReading(core.ID, metric.FrequencyCore, mhz, at))
		} else {
			readings = append(readings, metric.Unavailable(core.ID, metric.FrequencyCore, at))
		}
	}

	return readings, nil
}

// coreFrequencies returns the current MHz per logical core. Frequency
// failure degrades only the frequency readings, never the poll.
func coreFrequencies(ctx context.Context, count int) map[int]float64 {
	freqs := make(map[int]float64, count)

	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return freqs
	}

	for _, info := range infos {
		idx := int(info.CPU)
		if idx >= 0 && idx < count && info.Mhz > 0 {
			freqs[idx] = info.Mhz
		}
	}

	return freqs
}

// coreMaxMHz reads the cpufreq ceiling for one core. gopsutil does not
// expose cpuinfo_max_freq, so this goes straight to sysfs.
func coreMaxMHz(index int) float64 {
	contents, err := os.ReadFile(fmt.Sprintf(cpufreqMaxPath, index))
	if err != nil {
		return 0
	}

	khz, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil {
		return 0
	}

	return float64(khz) / kilohertzToMHz
}

// cleanCPUBrand strips marketing noise from the CPU model string. The
// replacements chain so "Intel " and "Core " match after the trademark
// glyphs are gone.
func cleanCPUBrand(brand string) string {
	for _, noise := range []string{"(R)", "(TM)", "Intel ", "Core "} {
		brand = strings.ReplaceAll(brand, noise, "")
	}

	return strings.TrimSpace(brand)
}
