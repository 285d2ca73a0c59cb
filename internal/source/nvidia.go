package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"codeberg.org/mutker/hwtop/internal/errors"
	"codeberg.org/mutker/hwtop/internal/logger"
	"codeberg.org/mutker/hwtop/internal/metric"
)

const (
	milliWattsToWatts = 1000
	kibibytesToBytes  = 1024
	millijoulesToMJ   = 1e9
)

// GPUID returns the device ID for one GPU.
func GPUID(index int) metric.DeviceID {
	return metric.DeviceID(fmt.Sprintf("gpu:%d", index))
}

// FanID returns the device ID for one GPU fan.
func FanID(gpu, fan int) metric.DeviceID {
	return metric.DeviceID(fmt.Sprintf("gpu:%d:fan:%d", gpu, fan))
}

// gpuClockKinds maps clock-domain capabilities to NVML clock selectors.
var gpuClockKinds = []struct {
	kind  metric.Kind
	clock nvml.ClockType
}{
	{metric.FrequencyGraphics, nvml.CLOCK_GRAPHICS},
	{metric.FrequencyMemory, nvml.CLOCK_MEM},
	{metric.FrequencySM, nvml.CLOCK_SM},
	{metric.FrequencyVideo, nvml.CLOCK_VIDEO},
}

// nvmlError adapts an NVML return code to error.
type nvmlError struct {
	ret nvml.Return
}

func (e nvmlError) Error() string {
	return nvml.ErrorString(e.ret)
}

func newNVMLError(ret nvml.Return) error {
	if ret == nvml.SUCCESS {
		return nil
	}
	return &nvmlError{ret: ret}
}

type nvidiaGPU struct {
	handle nvml.Device
	device metric.Device
	fans   []metric.Device
}

// NVIDIAAdapter reads NVIDIA GPU telemetry through NVML: utilization, VRAM,
// temperature, power, the four clock domains, PCIe throughput, and per-fan
// speed. Every measurement degrades independently; only a failed library
// init fails enumeration.
type NVIDIAAdapter struct {
	gpus []nvidiaGPU
}

func NewNVIDIA(_ context.Context) (*NVIDIAAdapter, error) {
	if ret := nvml.Init(); ret != nvml.SUCCESS {
		return nil, errors.Wrap(ErrNVMLFailure, newNVMLError(ret))
	}

	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		nvml.Shutdown()
		return nil, errors.Wrap(ErrNVMLFailure, newNVMLError(ret))
	}
	if count == 0 {
		nvml.Shutdown()
		return nil, errors.New(ErrNoDevices)
	}

	a := &NVIDIAAdapter{}
	for i := 0; i < count; i++ {
		handle, ret := nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			logger.Warn().Msgf("Failed to get GPU %d handle: %v", i, nvml.ErrorString(ret))
			continue
		}
		a.gpus = append(a.gpus, enumerateGPU(handle, i))
	}

	if len(a.gpus) == 0 {
		nvml.Shutdown()
		return nil, errors.New(ErrNoDevices)
	}

	return a, nil
}

func enumerateGPU(handle nvml.Device, index int) nvidiaGPU {
	name := fmt.Sprintf("GPU %d", index)
	if n, ret := handle.GetName(); ret == nvml.SUCCESS {
		name = cleanGPUName(n)
	}
	logger.Info().Msgf("Detected GPU: %v", name)

	limits := make(map[metric.Kind]float64)
	caps := []metric.Kind{metric.Utilization, metric.Temperature, metric.Power, metric.MemoryUsed, metric.MemoryTotal}

	if limit, ret := handle.GetPowerManagementLimit(); ret == nvml.SUCCESS {
		limits[metric.Power] = float64(limit / milliWattsToWatts)
	}

	if info, ret := handle.GetMemoryInfo(); ret == nvml.SUCCESS {
		limits[metric.MemoryTotal] = float64(info.Total)
	}

	for _, ck := range gpuClockKinds {
		caps = append(caps, ck.kind)
		if maxClk, ret := handle.GetMaxClockInfo(ck.clock); ret == nvml.SUCCESS {
			limits[ck.kind] = float64(maxClk)
		}
	}

	caps = append(caps, metric.PcieRx, metric.PcieTx)
	if capacity := pcieLinkCapacity(handle); capacity > 0 {
		limits[metric.PcieRx] = capacity
		limits[metric.PcieTx] = capacity
	}

	gpu := nvidiaGPU{
		handle: handle,
		device: metric.Device{
			ID:     GPUID(index),
			Vendor: metric.VendorNvidia,
			Index:  index,
			Name:   name,
			Caps:   caps,
			Limits: limits,
		},
	}

	fanCount, ret := handle.GetNumFans()
	if ret != nvml.SUCCESS {
		fanCount = 0
	}
	for f := 0; f < fanCount; f++ {
		gpu.fans = append(gpu.fans, metric.Device{
			ID:     FanID(index, f),
			Vendor: metric.VendorNvidia,
			Index:  f,
			Name:   fmt.Sprintf("%s fan %d", name, f),
			Caps:   []metric.Kind{metric.FanSpeed},
		})
	}

	return gpu
}

func (a *NVIDIAAdapter) Name() string {
	return "nvidia"
}

func (a *NVIDIAAdapter) Devices() []metric.Device {
	var devices []metric.Device
	for _, gpu := range a.gpus {
		devices = append(devices, gpu.device)
		devices = append(devices, gpu.fans...)
	}

	return devices
}

func (a *NVIDIAAdapter) Close() error {
	if ret := nvml.Shutdown(); ret != nvml.SUCCESS {
		return errors.Wrap(ErrShutdownFailed, newNVMLError(ret))
	}

	return nil
}

func (a *NVIDIAAdapter) Poll(_ context.Context) ([]metric.Reading, error) {
	at := time.Now()
	var readings []metric.Reading
	for _, gpu := range a.gpus {
		readings = append(readings, pollGPU(gpu, at)...)
	}

	return readings, nil
}

func pollGPU(gpu nvidiaGPU, at time.Time) []metric.Reading {
	id := gpu.device.ID
	var readings []metric.Reading

	read := func(kind metric.Kind, value float64, ret nvml.Return) {
		if ret == nvml.SUCCESS {
			readings = append(readings, metric.NewReading(id, kind, value, at))
		} else {
			readings = append(readings, metric.Unavailable(id, kind, at))
		}
	}

	util, ret := gpu.handle.GetUtilizationRates()
	read(metric.Utilization, float64(util.Gpu), ret)

	temp, ret := gpu.handle.GetTemperature(nvml.TEMPERATURE_GPU)
	read(metric.Temperature, float64(temp), ret)

	power, ret := gpu.handle.GetPowerUsage()
	read(metric.Power, float64(power/milliWattsToWatts), ret)

	memInfo, ret := gpu.handle.GetMemoryInfo()
	read(metric.MemoryUsed, float64(memInfo.Used), ret)
	read(metric.MemoryTotal, float64(memInfo.Total), ret)

	for _, ck := range gpuClockKinds {
		clk, ret := gpu.handle.GetClockInfo(ck.clock)
		read(ck.kind, float64(clk), ret)
	}

	// NVML reports PCIe throughput in KB/s.
	rx, ret := gpu.handle.GetPcieThroughput(nvml.PCIE_UTIL_RX_BYTES)
	read(metric.PcieRx, float64(rx)*kibibytesToBytes, ret)
	tx, ret := gpu.handle.GetPcieThroughput(nvml.PCIE_UTIL_TX_BYTES)
	read(metric.PcieTx, float64(tx)*kibibytesToBytes, ret)

	for f, fan := range gpu.fans {
		speed, ret := gpu.handle.GetFanSpeed_v2(f)
		if ret == nvml.SUCCESS {
			readings = append(readings, metric.NewReading(fan.ID, metric.FanSpeed, float64(speed), at))
		} else {
			readings = append(readings, metric.Unavailable(fan.ID, metric.FanSpeed, at))
		}
	}

	return readings
}

// Info reports the static identity details shown by the info view.
func (a *NVIDIAAdapter) Info(_ context.Context) []DeviceDetail {
	var details []DeviceDetail
	for _, gpu := range a.gpus {
		detail := DeviceDetail{Device: gpu.device.ID}
		add := func(label, value string) {
			detail.Attrs = append(detail.Attrs, Attr{Label: label, Value: value})
		}

		if info, ret := gpu.handle.GetMemoryInfo(); ret == nvml.SUCCESS {
			vram := fmt.Sprintf("%gGB", float64(info.Total)/float64(uint64(1)<<30))
			if memClk, ret := gpu.handle.GetMaxClockInfo(nvml.CLOCK_MEM); ret == nvml.SUCCESS {
				vram += fmt.Sprintf(" %dMHz", memClk)
			}
			add("VRAM", vram)
		}

		var clocks []string
		for _, ck := range []struct {
			label string
			clock nvml.ClockType
		}{{"Gfx", nvml.CLOCK_GRAPHICS}, {"SM", nvml.CLOCK_SM}, {"Vid", nvml.CLOCK_VIDEO}} {
			if clk, ret := gpu.handle.GetMaxClockInfo(ck.clock); ret == nvml.SUCCESS {
				clocks = append(clocks, fmt.Sprintf("%s %dMHz", ck.label, clk))
			}
		}
		if len(clocks) > 0 {
			add("Clock", strings.Join(clocks, "  "))
		}

		if cores, ret := gpu.handle.GetNumGpuCores(); ret == nvml.SUCCESS {
			add("Cores", fmt.Sprintf("%d", cores))
		}

		if energy, ret := gpu.handle.GetTotalEnergyConsumption(); ret == nvml.SUCCESS {
			add("Consumed", fmt.Sprintf("%.2fMJ", float64(energy)/millijoulesToMJ))
		}

		if driver, ret := nvml.SystemGetDriverVersion(); ret == nvml.SUCCESS {
			add("Driver", driver)
		}

		if state, ret := gpu.handle.GetPerformanceState(); ret == nvml.SUCCESS {
			add("Perf", fmt.Sprintf("P%d (0-15, 0 = max)", int(state)))
		}

		if cuda, ret := nvml.SystemGetCudaDriverVersion(); ret == nvml.SUCCESS {
			add("CUDA", fmt.Sprintf("%d", cuda))
		}

		details = append(details, detail)
	}

	return details
}

// pcieLinkCapacity derives the link's max throughput in bytes per second
// from its generation and width. Per-lane rates account for encoding
// overhead: 8b/10b for gen 1-2, 128b/130b for gen 3+.
func pcieLinkCapacity(handle nvml.Device) float64 {
	gen, ret := handle.GetMaxPcieLinkGeneration()
	if ret != nvml.SUCCESS {
		return 0
	}
	width, ret := handle.GetMaxPcieLinkWidth()
	if ret != nvml.SUCCESS {
		return 0
	}

	return float64(pcieLaneMBps(gen)*width) * 1e6
}

// pcieLaneMBps returns per-lane throughput in MB/s for a PCIe generation.
func pcieLaneMBps(gen int) int {
	switch gen {
	case 1:
		return 250
	case 2:
		return 500
	case 3:
		return 985
	case 4:
		return 1969
	case 5:
		return 3938
	default:
		return 1969
	}
}

// cleanGPUName strips vendor prefixes from the GPU marketing name.
func cleanGPUName(name string) string {
	replacer := strings.NewReplacer("NVIDIA ", "", "GeForce ", "")
	return strings.TrimSpace(replacer.Replace(name))
}
