package metric

import "time"

// Reading is one observation of one (device, kind) pair. A reading is either
// a valid numeric value or an explicit unavailable marker; it is immutable
// once produced.
type Reading struct {
	Device DeviceID
	Kind   Kind
	Value  float64
	Valid  bool
	At     time.Time
}

// NewReading returns a valid reading.
func NewReading(id DeviceID, kind Kind, value float64, at time.Time) Reading {
	return Reading{Device: id, Kind: kind, Value: value, Valid: true, At: at}
}

// Unavailable returns an explicit unavailable reading for the pair. Absence
// of data is a first-class observation, not an error.
func Unavailable(id DeviceID, kind Kind, at time.Time) Reading {
	return Reading{Device: id, Kind: kind, At: at}
}

// Key identifies a (device, kind) pair inside a snapshot or history store.
type Key struct {
	Device DeviceID
	Kind   Kind
}

// Key returns the reading's merge key.
func (r Reading) Key() Key {
	return Key{Device: r.Device, Kind: r.Kind}
}
