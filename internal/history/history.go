// Package history retains bounded per-(device, kind) sample windows for
// graphing. Buffers are fixed-capacity rings: appends are O(1) and evict the
// oldest sample on overflow, so memory stays bounded no matter how long the
// process runs.
package history

import (
	"math"
	"sync"

	"codeberg.org/mutker/hwtop/internal/metric"
)

// DefaultSize is the default number of samples retained per pair, sized to
// the sparkline width the dashboard draws.
const DefaultSize = 60

// Gap is the sentinel stored for unavailable readings. Storing a gap instead
// of skipping the sample keeps the timeline aligned: a source blip shows as
// a hole in the graph, not as silently compressed time.
var Gap = math.NaN()

// IsGap reports whether a window value is the unavailable sentinel.
func IsGap(v float64) bool {
	return math.IsNaN(v)
}

// Store holds the ring buffers. The aggregator is the only writer; renderers
// read windows through the RWMutex.
type Store struct {
	mu      sync.RWMutex
	size    int
	buffers map[metric.Key]*ring
}

type ring struct {
	data  []float64
	head  int
	count int
	size  int
}

// New creates a store whose buffers hold size samples each.
func New(size int) *Store {
	if size <= 0 {
		size = DefaultSize
	}

	return &Store{
		size:    size,
		buffers: make(map[metric.Key]*ring),
	}
}

// Size returns the per-pair capacity.
func (s *Store) Size() int {
	return s.size
}

// Append records a reading's value, or a gap when the reading is unavailable.
func (s *Store) Append(r metric.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := r.Key()
	buf, ok := s.buffers[key]
	if !ok {
		buf = newRing(s.size)
		s.buffers[key] = buf
	}

	if r.Valid {
		buf.push(r.Value)
	} else {
		buf.push(Gap)
	}
}

// Window returns up to n recent values for the pair in chronological order
// (oldest first). Gaps appear as the Gap sentinel. The returned slice is a
// copy and safe to retain.
func (s *Store) Window(id metric.DeviceID, kind metric.Kind, n int) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf, ok := s.buffers[metric.Key{Device: id, Kind: kind}]
	if !ok {
		return nil
	}

	return buf.last(n)
}

// Len returns the number of samples stored for the pair.
func (s *Store) Len(id metric.DeviceID, kind metric.Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf, ok := s.buffers[metric.Key{Device: id, Kind: kind}]
	if !ok {
		return 0
	}

	return buf.count
}

func newRing(size int) *ring {
	return &ring{
		data: make([]float64, size),
		size: size,
	}
}

func (r *ring) push(value float64) {
	r.data[r.head] = value
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// last returns the last count values in chronological order. head points at
// the next write slot, so the newest sample sits at head-1.
func (r *ring) last(count int) []float64 {
	if count <= 0 || r.count == 0 {
		return nil
	}

	if count > r.count {
		count = r.count
	}

	result := make([]float64, count)
	start := (r.head - count + r.size) % r.size
	for i := 0; i < count; i++ {
		result[i] = r.data[(start+i)%r.size]
	}

	return result
}
