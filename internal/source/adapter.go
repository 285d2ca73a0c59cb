// Package source contains the per-domain telemetry adapters. Each adapter
// wraps one vendor backend behind a uniform poll contract: devices and their
// capabilities are declared once at enumeration time, and every poll returns
// one reading per declared (device, kind) pair, individually marked valid or
// unavailable. A failed measurement degrades that single pair; a failed
// backend degrades the whole adapter for one tick and is retried on the
// next. Adapters never take the process down.
package source

import (
	"context"
	"time"

	"codeberg.org/mutker/hwtop/internal/metric"
)

// Adapter is the uniform read contract over a vendor-specific backend.
type Adapter interface {
	// Name identifies the adapter in logs.
	Name() string

	// Devices returns the devices enumerated at construction time. The set
	// and each device's capabilities are static for the process lifetime.
	Devices() []metric.Device

	// Poll produces readings for the adapter's declared capabilities. The
	// context carries the per-poll timeout; implementations must return
	// promptly once it is done. A non-nil error means the backend as a
	// whole was unreachable this tick.
	Poll(ctx context.Context) ([]metric.Reading, error)
}

// Closer is implemented by adapters whose backend needs explicit teardown.
type Closer interface {
	Close() error
}

// Attr is one label/value pair of static device information.
type Attr struct {
	Label string
	Value string
}

// DeviceDetail carries static identity details for the info view.
type DeviceDetail struct {
	Device metric.DeviceID
	Attrs  []Attr
}

// InfoProvider is implemented by adapters that expose identity details
// beyond the device name (driver versions, link capabilities, addresses).
type InfoProvider interface {
	Info(ctx context.Context) []DeviceDetail
}

// AllUnavailable builds one unavailable reading for every declared
// capability of the given devices. The aggregator uses it to fill a tick for
// an adapter that failed or timed out.
func AllUnavailable(devices []metric.Device, at time.Time) []metric.Reading {
	var readings []metric.Reading
	for _, d := range devices {
		for _, k := range d.Caps {
			readings = append(readings, metric.Unavailable(d.ID, k, at))
		}
	}

	return readings
}
