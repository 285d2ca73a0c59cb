package session

import (
	"context"

	"codeberg.org/mutker/hwtop/internal/errors"
	"codeberg.org/mutker/hwtop/internal/metric"
	"codeberg.org/mutker/hwtop/internal/source"
)

type service struct {
	repo Repository
}

// NewService builds the default collector backed by the in-memory store.
func NewService() (Collector, error) {
	repo, err := NewRepository()
	if err != nil {
		return nil, err
	}

	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, sample *Sample) error {
	if sample == nil {
		return errors.New(ErrInvalidSample)
	}

	select {
	case <-ctx.Done():
		return errors.Wrap(errors.ErrTimeout, ctx.Err())
	default:
		return s.repo.Store(ctx, sample)
	}
}

func (s *service) Summarize(ctx context.Context) (*Summary, error) {
	return s.repo.Summarize(ctx)
}

func (s *service) Close() error {
	return s.repo.Close()
}

// noop is used when session statistics are disabled; every call succeeds.
type noop struct{}

func NewNoop() Collector {
	return noop{}
}

func (noop) Record(context.Context, *Sample) error { return nil }

func (noop) Summarize(context.Context) (*Summary, error) { return &Summary{}, nil }

func (noop) Close() error { return nil }

// FromSnapshot extracts the headline sample of one snapshot. The first GPU
// stands in for "the GPU"; machines without one leave those fields nil.
func FromSnapshot(snap *metric.Snapshot, gpu metric.DeviceID) *Sample {
	sample := &Sample{Tick: snap.Tick(), At: snap.At()}

	sample.CPUUtil = value(snap, source.CPUPackageID, metric.Utilization)
	sample.CPUTemp = value(snap, source.CPUTempID, metric.Temperature)
	sample.RAMPercent = value(snap, source.RAMID, metric.Utilization)

	if gpu != "" {
		sample.GPUUtil = value(snap, gpu, metric.Utilization)
		sample.GPUTemp = value(snap, gpu, metric.Temperature)
		sample.GPUPower = value(snap, gpu, metric.Power)
	}

	return sample
}

func value(snap *metric.Snapshot, id metric.DeviceID, kind metric.Kind) *float64 {
	if v, ok := snap.Value(id, kind); ok {
		return &v
	}

	return nil
}
