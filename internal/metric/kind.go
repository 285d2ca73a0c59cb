package metric

// Kind identifies one kind of measurement a device can produce. The set is
// closed; adapters declare at enumeration time which kinds each of their
// devices emits and never emit outside that set.
type Kind int

const (
	Utilization Kind = iota
	Temperature
	FrequencyCore
	FrequencyGraphics
	FrequencyMemory
	FrequencySM
	FrequencyVideo
	Power
	FanSpeed
	MemoryUsed
	MemoryTotal
	PcieRx
	PcieTx
	NetworkRx
	NetworkTx
	NetworkRxPackets
	NetworkTxPackets
	DriveUsage
	DriveRead
	DriveWrite
	DriveReadTotal
	DriveWriteTotal
)

// Unit describes how a kind's numeric value is scaled.
type Unit int

const (
	UnitPercent Unit = iota
	UnitCelsius
	UnitMegahertz
	UnitWatts
	UnitBytes
	UnitBytesPerSecond
	UnitPacketsPerSecond
)

type kindSpec struct {
	name     string
	unit     Unit
	min, max float64
}

var kindSpecs = map[Kind]kindSpec{
	Utilization:       {"utilization", UnitPercent, 0, 100},
	Temperature:       {"temperature", UnitCelsius, 0, 120},
	FrequencyCore:     {"frequency_core", UnitMegahertz, 0, 8000},
	FrequencyGraphics: {"frequency_graphics", UnitMegahertz, 0, 4000},
	FrequencyMemory:   {"frequency_memory", UnitMegahertz, 0, 15000},
	FrequencySM:       {"frequency_sm", UnitMegahertz, 0, 4000},
	FrequencyVideo:    {"frequency_video", UnitMegahertz, 0, 4000},
	Power:             {"power", UnitWatts, 0, 1500},
	FanSpeed:          {"fan_speed", UnitPercent, 0, 100},
	MemoryUsed:        {"memory_used", UnitBytes, 0, 0},
	MemoryTotal:       {"memory_total", UnitBytes, 0, 0},
	PcieRx:            {"pcie_rx", UnitBytesPerSecond, 0, 0},
	PcieTx:            {"pcie_tx", UnitBytesPerSecond, 0, 0},
	NetworkRx:         {"network_rx", UnitBytesPerSecond, 0, 0},
	NetworkTx:         {"network_tx", UnitBytesPerSecond, 0, 0},
	NetworkRxPackets:  {"network_rx_packets", UnitPacketsPerSecond, 0, 0},
	NetworkTxPackets:  {"network_tx_packets", UnitPacketsPerSecond, 0, 0},
	DriveUsage:        {"drive_usage", UnitPercent, 0, 100},
	DriveRead:         {"drive_read", UnitBytesPerSecond, 0, 0},
	DriveWrite:        {"drive_write", UnitBytesPerSecond, 0, 0},
	DriveReadTotal:    {"drive_read_total", UnitBytes, 0, 0},
	DriveWriteTotal:   {"drive_write_total", UnitBytes, 0, 0},
}

func (k Kind) String() string {
	if spec, ok := kindSpecs[k]; ok {
		return spec.name
	}

	return "unknown"
}

// Unit returns the unit the kind's values are expressed in.
func (k Kind) Unit() Unit {
	return kindSpecs[k].unit
}

// NominalRange returns the nominal valid range for the kind. A zero max means
// the range is unbounded (byte counters, throughput).
func (k Kind) NominalRange() (minVal, maxVal float64) {
	spec := kindSpecs[k]
	return spec.min, spec.max
}

// InRange reports whether a value lies inside the kind's nominal range.
func (k Kind) InRange(v float64) bool {
	spec := kindSpecs[k]
	if spec.max == 0 {
		return v >= spec.min
	}

	return v >= spec.min && v <= spec.max
}
