package metric

import "time"

// Snapshot is the merged result of one poll cycle: the latest reading for
// every (device, kind) pair the cycle produced. Snapshots are immutable and
// published atomically; readers never observe a partially merged state.
type Snapshot struct {
	tick     uint64
	at       time.Time
	readings map[Key]Reading
}

// NewSnapshot builds a snapshot from merged readings. The map is copied so
// the caller cannot mutate a published snapshot.
func NewSnapshot(tick uint64, at time.Time, readings map[Key]Reading) *Snapshot {
	copied := make(map[Key]Reading, len(readings))
	for k, r := range readings {
		copied[k] = r
	}

	return &Snapshot{tick: tick, at: at, readings: copied}
}

// Tick returns the cycle number the snapshot was committed on.
func (s *Snapshot) Tick() uint64 {
	return s.tick
}

// At returns the commit time of the snapshot.
func (s *Snapshot) At() time.Time {
	return s.at
}

// Get returns the reading for a (device, kind) pair.
func (s *Snapshot) Get(id DeviceID, kind Kind) (Reading, bool) {
	r, ok := s.readings[Key{Device: id, Kind: kind}]
	return r, ok
}

// Value returns the numeric value for a pair, with ok false when the pair is
// absent or the reading is unavailable.
func (s *Snapshot) Value(id DeviceID, kind Kind) (float64, bool) {
	r, ok := s.Get(id, kind)
	if !ok || !r.Valid {
		return 0, false
	}

	return r.Value, true
}

// Len returns the number of readings in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.readings)
}

// ValidCount returns the number of available readings in the snapshot.
func (s *Snapshot) ValidCount() int {
	n := 0
	for _, r := range s.readings {
		if r.Valid {
			n++
		}
	}

	return n
}

// Each calls fn for every reading in the snapshot.
func (s *Snapshot) Each(fn func(Reading)) {
	for _, r := range s.readings {
		fn(r)
	}
}
