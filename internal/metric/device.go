package metric

// Vendor names the backend family a device was enumerated from.
type Vendor string

const (
	VendorCPU     Vendor = "cpu"
	VendorNvidia  Vendor = "nvidia"
	VendorSystem  Vendor = "system"
	VendorNetwork Vendor = "network"
	VendorDrive   Vendor = "drive"
	VendorThermal Vendor = "thermal"
)

// DeviceID uniquely identifies a device for the process lifetime.
type DeviceID string

// Device is the identity of one telemetry-producing hardware entity. It is
// created during adapter enumeration and immutable afterwards; hot-plug is
// not modeled.
type Device struct {
	ID     DeviceID
	Vendor Vendor
	Index  int
	Name   string

	// Caps is the set of kinds this device can produce. Adapters only emit
	// readings for declared capabilities.
	Caps []Kind

	// Limits holds static per-kind maxima established at enumeration time
	// (core max frequency, GPU clock ceilings, power limit, memory total,
	// PCIe link capacity). Zero when a kind has no static ceiling.
	Limits map[Kind]float64
}

// Has reports whether the device declared the given capability.
func (d Device) Has(k Kind) bool {
	for _, c := range d.Caps {
		if c == k {
			return true
		}
	}

	return false
}

// Limit returns the static ceiling for a kind, or 0 when none was declared.
func (d Device) Limit(k Kind) float64 {
	if d.Limits == nil {
		return 0
	}

	return d.Limits[k]
}
