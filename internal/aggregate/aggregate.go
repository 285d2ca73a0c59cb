// Package aggregate drives the polling cycle. A single scheduler goroutine
// ticks at a fixed interval, fans out to every source adapter concurrently,
// bounds each cycle with a deadline, and publishes one immutable snapshot
// per tick. Sources that fail or time out degrade to unavailable readings
// instead of stalling the cycle.
package aggregate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/hwtop/internal/errors"
	"codeberg.org/mutker/hwtop/internal/history"
	"codeberg.org/mutker/hwtop/internal/logger"
	"codeberg.org/mutker/hwtop/internal/metric"
	"codeberg.org/mutker/hwtop/internal/source"
)

const (
	DefaultTickInterval = time.Second
	DefaultPollTimeout  = 800 * time.Millisecond
	DefaultCycleGrace   = 250 * time.Millisecond

	// Consecutive cycles with zero valid readings before the scheduler
	// gives up.
	maxEmptyCycles = 2
)

type Options struct {
	TickInterval time.Duration
	PollTimeout  time.Duration
	CycleGrace   time.Duration
	HistorySize  int
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.PollTimeout <= 0 {
		o.PollTimeout = DefaultPollTimeout
	}
	if o.CycleGrace <= 0 {
		o.CycleGrace = DefaultCycleGrace
	}
	if o.HistorySize <= 0 {
		o.HistorySize = history.DefaultSize
	}

	return o
}

type pollResult struct {
	adapter  string
	readings []metric.Reading
	err      error
}

// Scheduler owns the tick loop. It is the only writer of snapshots and
// history; readers consume through Current, Snapshots and History.
type Scheduler struct {
	adapters []source.Adapter
	opts     Options

	devices  []metric.Device
	byID     map[metric.DeviceID]metric.Device
	declared map[metric.Key]bool

	hist *history.Store
	snap atomic.Pointer[metric.Snapshot]
	out  chan *metric.Snapshot

	tick        uint64
	emptyCycles int
	failing     map[string]bool
}

func New(adapters []source.Adapter, opts Options) (*Scheduler, error) {
	opts = opts.withDefaults()

	s := &Scheduler{
		adapters: adapters,
		opts:     opts,
		byID:     make(map[metric.DeviceID]metric.Device),
		declared: make(map[metric.Key]bool),
		hist:     history.New(opts.HistorySize),
		out:      make(chan *metric.Snapshot, 1),
		failing:  make(map[string]bool),
	}

	for _, a := range adapters {
		for _, d := range a.Devices() {
			s.devices = append(s.devices, d)
			s.byID[d.ID] = d
			for _, k := range d.Caps {
				s.declared[metric.Key{Device: d.ID, Kind: k}] = true
			}
		}
	}

	if len(s.devices) == 0 {
		return nil, errors.New(ErrNoSources)
	}

	return s, nil
}

// Devices returns the device inventory in enumeration order.
func (s *Scheduler) Devices() []metric.Device {
	return s.devices
}

// Current returns the most recently published snapshot, or nil before the
// first cycle completes.
func (s *Scheduler) Current() *metric.Snapshot {
	return s.snap.Load()
}

// Snapshots delivers each published snapshot. The channel holds one element;
// a slow consumer observes the latest snapshot, not a backlog.
func (s *Scheduler) Snapshots() <-chan *metric.Snapshot {
	return s.out
}

func (s *Scheduler) History() *history.Store {
	return s.hist
}

// Run executes the polling loop until the context is canceled or every
// source stops producing data. The first cycle runs immediately so the
// dashboard has content before the first full interval elapses.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.cycle(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.cycle(ctx); err != nil {
				return err
			}
		}
	}
}

// RunOnce performs a single polling cycle and returns the snapshot.
func (s *Scheduler) RunOnce(ctx context.Context) (*metric.Snapshot, error) {
	if err := s.cycle(ctx); err != nil {
		return nil, err
	}

	return s.snap.Load(), nil
}

func (s *Scheduler) cycle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return nil
	}

	at := time.Now()
	pollCtx, cancel := context.WithTimeout(ctx, s.opts.PollTimeout)
	defer cancel()

	results := make(chan pollResult, len(s.adapters))
	var wg sync.WaitGroup
	for _, a := range s.adapters {
		wg.Add(1)
		go func(a source.Adapter) {
			defer wg.Done()
			readings, err := a.Poll(pollCtx)
			results <- pollResult{adapter: a.Name(), readings: readings, err: err}
		}(a)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	// The deadline bounds the whole cycle even if a poll goroutine ignores
	// its context. Stragglers finish into the buffered channel and are
	// dropped.
	deadline := time.NewTimer(s.opts.PollTimeout + s.opts.CycleGrace)
	defer deadline.Stop()

	reported := make(map[string]bool, len(s.adapters))
	merged := make(map[metric.Key]metric.Reading)

collect:
	for {
		select {
		case res, ok := <-results:
			if !ok {
				break collect
			}
			reported[res.adapter] = true
			s.noteAdapter(res.adapter, res.err)
			s.merge(merged, res.readings)
		case <-deadline.C:
			break collect
		}
	}

	// Adapters that never reported fill their declared capabilities with
	// unavailable readings so the timeline keeps its shape.
	for _, a := range s.adapters {
		if reported[a.Name()] {
			continue
		}
		s.noteAdapter(a.Name(), errors.New(errors.ErrTimeout))
		s.merge(merged, source.AllUnavailable(a.Devices(), at))
	}

	for key := range s.declared {
		if _, ok := merged[key]; !ok {
			merged[key] = metric.Unavailable(key.Device, key.Kind, at)
		}
	}

	s.tick++
	snap := metric.NewSnapshot(s.tick, at, merged)

	for _, r := range merged {
		s.hist.Append(r)
	}

	if snap.ValidCount() == 0 {
		s.emptyCycles++
		if s.emptyCycles >= maxEmptyCycles {
			return errors.New(ErrNoData)
		}
	} else {
		s.emptyCycles = 0
	}

	s.snap.Store(snap)
	select {
	case s.out <- snap:
	default:
		// Consumer still holds the previous snapshot; replace it.
		select {
		case <-s.out:
		default:
		}
		select {
		case s.out <- snap:
		default:
		}
	}

	return nil
}

// merge folds readings into the cycle result, dropping anything a device
// never declared. Duplicate keys keep the last value.
func (s *Scheduler) merge(dst map[metric.Key]metric.Reading, readings []metric.Reading) {
	for _, r := range readings {
		key := r.Key()
		if !s.declared[key] {
			logger.Warn().
				Str("device", string(r.Device)).
				Str("kind", r.Kind.String()).
				Msg("Dropping reading for undeclared capability")
			continue
		}
		if prev, dup := dst[key]; dup && prev.Valid {
			logger.Warn().
				Str("device", string(r.Device)).
				Str("kind", r.Kind.String()).
				Msg("Duplicate reading for key, keeping last")
		}
		dst[key] = r
	}
}

// noteAdapter tracks per-adapter health so a failing source logs once on
// transition instead of every tick.
func (s *Scheduler) noteAdapter(name string, err error) {
	if err != nil {
		if !s.failing[name] {
			logger.Warn().
				Str("source", name).
				Err(err).
				Msg("Source degraded, reporting unavailable")
			s.failing[name] = true
		}
		return
	}
	if s.failing[name] {
		logger.Info().
			Str("source", name).
			Msg("Source recovered")
		delete(s.failing, name)
	}
}
