package source

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"codeberg.org/mutker/hwtop/internal/errors"
	"codeberg.org/mutker/hwtop/internal/metric"
)

const (
	RAMID  = metric.DeviceID("ram")
	SwapID = metric.DeviceID("swap")
)

// MemoryAdapter reads system RAM and swap usage.
type MemoryAdapter struct {
	devices []metric.Device
	hasSwap bool
}

func NewMemory(ctx context.Context) (*MemoryAdapter, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, errors.Wrap(ErrEnumerationFailed, err)
	}

	a := &MemoryAdapter{}
	a.devices = append(a.devices, metric.Device{
		ID:     RAMID,
		Vendor: metric.VendorSystem,
		Name:   "RAM",
		Caps:   []metric.Kind{metric.Utilization, metric.MemoryUsed, metric.MemoryTotal},
		Limits: map[metric.Kind]float64{metric.MemoryTotal: float64(vm.Total)},
	})

	if swap, err := mem.SwapMemoryWithContext(ctx); err == nil && swap.Total > 0 {
		a.hasSwap = true
		a.devices = append(a.devices, metric.Device{
			ID:     SwapID,
			Vendor: metric.VendorSystem,
			Index:  1,
			Name:   "Swap",
			Caps:   []metric.Kind{metric.MemoryUsed, metric.MemoryTotal},
			Limits: map[metric.Kind]float64{metric.MemoryTotal: float64(swap.Total)},
		})
	}

	return a, nil
}

func (a *MemoryAdapter) Name() string {
	return "memory"
}

func (a *MemoryAdapter) Devices() []metric.Device {
	return a.devices
}

func (a *MemoryAdapter) Poll(ctx context.Context) ([]metric.Reading, error) {
	at := time.Now()
	var readings []metric.Reading

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, errors.Wrap(ErrBackendUnreachable, err)
	}

	readings = append(readings,
		metric.NewReading(RAMID, metric.Utilization, vm.UsedPercent, at),
		metric.NewReading(RAMID, metric.MemoryUsed, float64(vm.Used), at),
		metric.NewReading(RAMID, metric.MemoryTotal, float64(vm.Total), at),
	)

	if a.hasSwap {
		if swap, err := mem.SwapMemoryWithContext(ctx); err == nil {
			readings = append(readings,
				metric.NewReading(SwapID, metric.MemoryUsed, float64(swap.Used), at),
				metric.NewReading(SwapID, metric.MemoryTotal, float64(swap.Total), at),
			)
		} else {
			readings = append(readings,
				metric.Unavailable(SwapID, metric.MemoryUsed, at),
				metric.Unavailable(SwapID, metric.MemoryTotal, at),
			)
		}
	}

	return readings, nil
}
