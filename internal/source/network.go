package source

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/net"

	"codeberg.org/mutker/hwtop/internal/errors"
	"codeberg.org/mutker/hwtop/internal/metric"
)

// NetID returns the device ID for one network interface.
func NetID(name string) metric.DeviceID {
	return metric.DeviceID("net:" + name)
}

// netCaps are the kinds every interface device declares.
var netCaps = []metric.Kind{
	metric.NetworkRx, metric.NetworkTx,
	metric.NetworkRxPackets, metric.NetworkTxPackets,
}

// NetworkAdapter reads per-interface traffic rates. Interfaces are
// enumerated once; rates are deltas of the kernel's cumulative counters
// between polls, so the first poll after enumeration reports unavailable.
type NetworkAdapter struct {
	devices []metric.Device
	names   map[string]metric.DeviceID

	mu     sync.Mutex
	prev   map[string]net.IOCountersStat
	prevAt time.Time
}

func NewNetwork(ctx context.Context) (*NetworkAdapter, error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, errors.Wrap(ErrEnumerationFailed, err)
	}

	a := &NetworkAdapter{
		names: make(map[string]metric.DeviceID),
		prev:  make(map[string]net.IOCountersStat),
	}

	index := 0
	for _, c := range counters {
		if !interestingInterface(c.Name, c.BytesRecv, c.BytesSent) {
			continue
		}
		id := NetID(c.Name)
		a.devices = append(a.devices, metric.Device{
			ID:     id,
			Vendor: metric.VendorNetwork,
			Index:  index,
			Name:   c.Name,
			Caps:   netCaps,
		})
		a.names[c.Name] = id
		a.prev[c.Name] = c
		index++
	}

	if len(a.devices) == 0 {
		return nil, errors.New(ErrNoDevices)
	}
	a.prevAt = time.Now()

	return a, nil
}

func (a *NetworkAdapter) Name() string {
	return "network"
}

func (a *NetworkAdapter) Devices() []metric.Device {
	return a.devices
}

func (a *NetworkAdapter) Poll(ctx context.Context) ([]metric.Reading, error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, errors.Wrap(ErrBackendUnreachable, err)
	}

	at := time.Now()

	a.mu.Lock()
	defer a.mu.Unlock()

	elapsed := at.Sub(a.prevAt).Seconds()
	current := make(map[string]net.IOCountersStat, len(counters))
	for _, c := range counters {
		current[c.Name] = c
	}

	var readings []metric.Reading
	for name, id := range a.names {
		now, seen := current[name]
		prev, hadPrev := a.prev[name]
		if !seen || !hadPrev || elapsed <= 0 {
			for _, k := range netCaps {
				readings = append(readings, metric.Unavailable(id, k, at))
			}
			continue
		}

		readings = append(readings,
			metric.NewReading(id, metric.NetworkRx, counterRate(now.BytesRecv, prev.BytesRecv, elapsed), at),
			metric.NewReading(id, metric.NetworkTx, counterRate(now.BytesSent, prev.BytesSent, elapsed), at),
			metric.NewReading(id, metric.NetworkRxPackets, counterRate(now.PacketsRecv, prev.PacketsRecv, elapsed), at),
			metric.NewReading(id, metric.NetworkTxPackets, counterRate(now.PacketsSent, prev.PacketsSent, elapsed), at),
		)
	}

	for name, c := range current {
		if _, known := a.names[name]; known {
			a.prev[name] = c
		}
	}
	a.prevAt = at

	return readings, nil
}

// Info reports each interface's addresses for the info view.
func (a *NetworkAdapter) Info(ctx context.Context) []DeviceDetail {
	ifaces, err := net.InterfacesWithContext(ctx)
	if err != nil {
		return nil
	}

	var details []DeviceDetail
	for _, dev := range a.devices {
		for _, iface := range ifaces {
			if iface.Name != dev.Name {
				continue
			}
			detail := DeviceDetail{Device: dev.ID}
			var addrs []string
			for _, addr := range iface.Addrs {
				addrs = append(addrs, addr.Addr)
			}
			if len(addrs) > 0 {
				detail.Attrs = append(detail.Attrs, Attr{Label: "ip", Value: strings.Join(addrs, ", ")})
			}
			if iface.HardwareAddr != "" {
				detail.Attrs = append(detail.Attrs, Attr{Label: "mac", Value: iface.HardwareAddr})
			}
			details = append(details, detail)
			break
		}
	}

	return details
}

// interestingInterface filters out loopback, bridge, and virtual ethernet
// devices, plus interfaces that have never moved a byte.
func interestingInterface(name string, rx, tx uint64) bool {
	if name == "lo" || name == "lo0" {
		return false
	}
	if strings.Contains(name, "veth") || strings.HasPrefix(name, "br-") {
		return false
	}

	return rx+tx > 0
}

// counterRate converts a cumulative counter delta to a per-second rate.
// Wrapped or reset counters clamp to zero rather than going negative.
func counterRate(now, prev uint64, elapsed float64) float64 {
	if now < prev || elapsed <= 0 {
		return 0
	}

	return float64(now-prev) / elapsed
}
