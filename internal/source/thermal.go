package source

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"codeberg.org/mutker/hwtop/internal/errors"
	"codeberg.org/mutker/hwtop/internal/metric"
)

const (
	CPUTempID = metric.DeviceID("thermal:cpu")

	// ThermalInfoID keys the adapter-level identity details (the
	// motherboard) rather than a single sensor.
	ThermalInfoID = metric.DeviceID("thermal")

	dmiBoardVendorPath = "/sys/devices/virtual/dmi/id/board_vendor"
	dmiBoardNamePath   = "/sys/devices/virtual/dmi/id/board_name"
)

// CoreTempID returns the device ID for one core temperature sensor.
func CoreTempID(index int) metric.DeviceID {
	return metric.DeviceID(fmt.Sprintf("thermal:core:%d", index))
}

var coreSensorPattern = regexp.MustCompile(`(?:^|_)core_?(\d+)$`)

// sensorClass is the grouping a raw hwmon sensor normalizes into.
type sensorClass int

const (
	sensorComponent sensorClass = iota
	sensorPackage
	sensorCore
)

// ThermalAdapter reads component temperatures from the platform sensors.
// The CPU package and per-core sensors feed the main dashboard; everything
// else is a secondary source shown by the extra view.
type ThermalAdapter struct {
	devices []metric.Device
	byKey   map[string]metric.DeviceID
}

func NewThermal(ctx context.Context) (*ThermalAdapter, error) {
	temps, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil {
		return nil, errors.Wrap(ErrEnumerationFailed, err)
	}
	if len(temps) == 0 {
		return nil, errors.New(ErrNoDevices)
	}

	a := &ThermalAdapter{byKey: make(map[string]metric.DeviceID)}
	slugCount := make(map[string]int)
	coreIdx := 0
	index := 0

	for _, t := range temps {
		if _, dup := a.byKey[t.SensorKey]; dup {
			continue
		}

		name, class := normalizeSensorKey(t.SensorKey)
		var id metric.DeviceID
		switch class {
		case sensorPackage:
			if _, exists := a.byKey[string(CPUTempID)]; exists {
				continue
			}
			id = CPUTempID
			name = "CPU"
		case sensorCore:
			id = CoreTempID(coreIdx)
			coreIdx++
		default:
			slug := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
			if n := slugCount[slug]; n > 0 {
				id = metric.DeviceID(fmt.Sprintf("thermal:%s:%d", slug, n))
			} else {
				id = metric.DeviceID("thermal:" + slug)
			}
			slugCount[slug]++
		}

		a.devices = append(a.devices, metric.Device{
			ID:     id,
			Vendor: metric.VendorThermal,
			Index:  index,
			Name:   name,
			Caps:   []metric.Kind{metric.Temperature},
		})
		a.byKey[t.SensorKey] = id
		index++
	}

	if len(a.devices) == 0 {
		return nil, errors.New(ErrNoDevices)
	}

	return a, nil
}

func (a *ThermalAdapter) Name() string {
	return "thermal"
}

func (a *ThermalAdapter) Devices() []metric.Device {
	return a.devices
}

func (a *ThermalAdapter) Poll(ctx context.Context) ([]metric.Reading, error) {
	temps, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil {
		return nil, errors.Wrap(ErrBackendUnreachable, err)
	}

	at := time.Now()
	seen := make(map[metric.DeviceID]bool, len(a.devices))
	var readings []metric.Reading

	for _, t := range temps {
		id, ok := a.byKey[t.SensorKey]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		readings = append(readings, metric.NewReading(id, metric.Temperature, t.Temperature, at))
	}

	// Sensors that vanished this tick degrade to gaps, not errors.
	for _, d := range a.devices {
		if !seen[d.ID] {
			readings = append(readings, metric.Unavailable(d.ID, metric.Temperature, at))
		}
	}

	return readings, nil
}

// Info reports the motherboard identity from DMI.
func (a *ThermalAdapter) Info(_ context.Context) []DeviceDetail {
	vendor := readDMI(dmiBoardVendorPath)
	board := readDMI(dmiBoardNamePath)
	if vendor == "" && board == "" {
		return nil
	}

	return []DeviceDetail{{
		Device: ThermalInfoID,
		Attrs:  []Attr{{Label: "Motherboard", Value: strings.TrimSpace(vendor + " " + board)}},
	}}
}

func readDMI(path string) string {
	contents, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(contents))
}

// normalizeSensorKey turns a raw hwmon sensor key into a display name and
// class. Keys vary by driver; the known families get friendly names and the
// rest keep their driver name.
func normalizeSensorKey(key string) (string, sensorClass) {
	lower := strings.ToLower(strings.TrimSpace(key))

	if strings.Contains(lower, "package") {
		return "CPU", sensorPackage
	}
	if strings.HasPrefix(lower, "k10temp") {
		if strings.Contains(lower, "tctl") || strings.Contains(lower, "tdie") {
			return "CPU", sensorPackage
		}
		return "CPU", sensorComponent
	}
	if m := coreSensorPattern.FindStringSubmatch(lower); m != nil {
		if _, err := strconv.Atoi(m[1]); err == nil {
			return "Core " + m[1], sensorCore
		}
	}

	switch {
	case strings.HasPrefix(lower, "nvme"):
		return "NVMe", sensorComponent
	case strings.HasPrefix(lower, "drivetemp"):
		return "Drive", sensorComponent
	case strings.HasPrefix(lower, "acpitz"):
		return "Motherboard", sensorComponent
	case strings.Contains(lower, "spd"):
		return "RAM", sensorComponent
	case strings.Contains(lower, "wifi"):
		return "Wi-Fi", sensorComponent
	}

	name := lower
	if i := strings.IndexByte(name, '_'); i > 0 {
		name = name[:i]
	}
	if name == "" {
		return "Sensor", sensorComponent
	}

	return strings.ToUpper(name[:1]) + name[1:], sensorComponent
}
