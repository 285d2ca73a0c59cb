package source

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/disk"

	"codeberg.org/mutker/hwtop/internal/errors"
	"codeberg.org/mutker/hwtop/internal/metric"
)

// Drives smaller than this are partitions not worth a dashboard row (boot
// and EFI volumes, ramdisks).
const minDriveBytes = 8 << 30

// DriveID returns the device ID for one drive.
func DriveID(name string) metric.DeviceID {
	return metric.DeviceID("drive:" + name)
}

var driveCaps = []metric.Kind{
	metric.DriveUsage, metric.MemoryUsed, metric.MemoryTotal,
	metric.DriveRead, metric.DriveWrite,
	metric.DriveReadTotal, metric.DriveWriteTotal,
}

type driveEntry struct {
	device     metric.Device
	mountpoint string
	ioName     string
}

// DriveAdapter reads filesystem usage and I/O rates for physical drives.
type DriveAdapter struct {
	drives []driveEntry

	mu     sync.Mutex
	prevIO map[string]disk.IOCountersStat
	prevAt time.Time
}

func NewDrives(ctx context.Context) (*DriveAdapter, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, errors.Wrap(ErrEnumerationFailed, err)
	}

	a := &DriveAdapter{prevIO: make(map[string]disk.IOCountersStat)}
	seen := make(map[string]bool)
	index := 0
	for _, p := range parts {
		name := strings.TrimPrefix(p.Device, "/dev/")
		if name == p.Device || seen[name] {
			continue
		}

		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil || usage.Total <= minDriveBytes {
			continue
		}

		seen[name] = true
		a.drives = append(a.drives, driveEntry{
			device: metric.Device{
				ID:     DriveID(name),
				Vendor: metric.VendorDrive,
				Index:  index,
				Name:   name,
				Caps:   driveCaps,
				Limits: map[metric.Kind]float64{metric.MemoryTotal: float64(usage.Total)},
			},
			mountpoint: p.Mountpoint,
			ioName:     name,
		})
		index++
	}

	if len(a.drives) == 0 {
		return nil, errors.New(ErrNoDevices)
	}

	if io, err := disk.IOCountersWithContext(ctx); err == nil {
		a.prevIO = io
	}
	a.prevAt = time.Now()

	return a, nil
}

func (a *DriveAdapter) Name() string {
	return "drive"
}

func (a *DriveAdapter) Devices() []metric.Device {
	devices := make([]metric.Device, 0, len(a.drives))
	for _, d := range a.drives {
		devices = append(devices, d.device)
	}

	return devices
}

func (a *DriveAdapter) Poll(ctx context.Context) ([]metric.Reading, error) {
	at := time.Now()

	io, ioErr := disk.IOCountersWithContext(ctx)

	a.mu.Lock()
	elapsed := at.Sub(a.prevAt).Seconds()
	prevIO := a.prevIO
	if ioErr == nil {
		a.prevIO = io
		a.prevAt = at
	}
	a.mu.Unlock()

	var readings []metric.Reading
	for _, d := range a.drives {
		id := d.device.ID

		usage, err := disk.UsageWithContext(ctx, d.mountpoint)
		if err == nil {
			used := float64(usage.Total - usage.Free)
			readings = append(readings,
				metric.NewReading(id, metric.DriveUsage, usage.UsedPercent, at),
				metric.NewReading(id, metric.MemoryUsed, used, at),
				metric.NewReading(id, metric.MemoryTotal, float64(usage.Total), at),
			)
		} else {
			readings = append(readings,
				metric.Unavailable(id, metric.DriveUsage, at),
				metric.Unavailable(id, metric.MemoryUsed, at),
				metric.Unavailable(id, metric.MemoryTotal, at),
			)
		}

		now, nowOK := io[d.ioName]
		prev, prevOK := prevIO[d.ioName]
		if ioErr == nil && nowOK && prevOK && elapsed > 0 {
			readings = append(readings,
				metric.NewReading(id, metric.DriveRead, counterRate(now.ReadBytes, prev.ReadBytes, elapsed), at),
				metric.NewReading(id, metric.DriveWrite, counterRate(now.WriteBytes, prev.WriteBytes, elapsed), at),
				metric.NewReading(id, metric.DriveReadTotal, float64(now.ReadBytes), at),
				metric.NewReading(id, metric.DriveWriteTotal, float64(now.WriteBytes), at),
			)
		} else {
			readings = append(readings,
				metric.Unavailable(id, metric.DriveRead, at),
				metric.Unavailable(id, metric.DriveWrite, at),
				metric.Unavailable(id, metric.DriveReadTotal, at),
				metric.Unavailable(id, metric.DriveWriteTotal, at),
			)
		}
	}

	return readings, nil
}
