package aggregate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mutker/hwtop/internal/errors"
	"codeberg.org/mutker/hwtop/internal/history"
	"codeberg.org/mutker/hwtop/internal/metric"
	"codeberg.org/mutker/hwtop/internal/source"
)

// fakeAdapter produces scripted readings. With block set it ignores its
// context and sleeps past any deadline, standing in for a stuck backend.
type fakeAdapter struct {
	name    string
	devices []metric.Device
	value   float64
	err     error
	block   time.Duration
	polls   int
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Devices() []metric.Device { return f.devices }

func (f *fakeAdapter) Poll(ctx context.Context) ([]metric.Reading, error) {
	f.polls++
	if f.block > 0 {
		time.Sleep(f.block)
	}
	if f.err != nil {
		return nil, f.err
	}

	at := time.Now()
	var readings []metric.Reading
	for _, d := range f.devices {
		for _, k := range d.Caps {
			readings = append(readings, metric.NewReading(d.ID, k, f.value, at))
		}
	}

	return readings, nil
}

func device(id string, kinds ...metric.Kind) metric.Device {
	return metric.Device{ID: metric.DeviceID(id), Caps: kinds}
}

func fastOptions() Options {
	return Options{
		TickInterval: 10 * time.Millisecond,
		PollTimeout:  30 * time.Millisecond,
		CycleGrace:   10 * time.Millisecond,
		HistorySize:  8,
	}
}

func TestNewRequiresDevices(t *testing.T) {
	_, err := New(nil, fastOptions())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, ErrNoSources))

	_, err = New([]source.Adapter{&fakeAdapter{name: "empty"}}, fastOptions())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, ErrNoSources))
}

func TestRunOncePublishesSnapshot(t *testing.T) {
	a := &fakeAdapter{
		name:    "cpu",
		devices: []metric.Device{device("cpu", metric.Utilization)},
		value:   42,
	}
	s, err := New([]source.Adapter{a}, fastOptions())
	require.NoError(t, err)

	snap, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, uint64(1), snap.Tick())

	v, ok := snap.Value("cpu", metric.Utilization)
	require.True(t, ok)
	assert.Equal(t, 42.0, v)
	assert.Same(t, snap, s.Current())
}

func TestStuckAdapterDoesNotStallCycle(t *testing.T) {
	healthy := &fakeAdapter{
		name:    "cpu",
		devices: []metric.Device{device("cpu", metric.Utilization)},
		value:   10,
	}
	stuck := &fakeAdapter{
		name:    "gpu",
		devices: []metric.Device{device("gpu:0", metric.Temperature)},
		block:   500 * time.Millisecond,
	}
	opts := fastOptions()
	s, err := New([]source.Adapter{healthy, stuck}, opts)
	require.NoError(t, err)

	start := time.Now()
	snap, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	elapsed := time.Since(start)

	// The cycle is bounded by timeout+grace, not by the stuck poll.
	assert.Less(t, elapsed, 300*time.Millisecond)

	v, ok := snap.Value("cpu", metric.Utilization)
	require.True(t, ok)
	assert.Equal(t, 10.0, v)

	r, ok := snap.Get("gpu:0", metric.Temperature)
	require.True(t, ok)
	assert.False(t, r.Valid)
}

func TestFailedAdapterFillsUnavailable(t *testing.T) {
	failing := &fakeAdapter{
		name:    "gpu",
		devices: []metric.Device{device("gpu:0", metric.Utilization, metric.Temperature)},
		err:     errors.New(errors.ErrUnavailable),
	}
	s, err := New([]source.Adapter{failing, &fakeAdapter{
		name:    "cpu",
		devices: []metric.Device{device("cpu", metric.Utilization)},
		value:   5,
	}}, fastOptions())
	require.NoError(t, err)

	snap, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	for _, kind := range []metric.Kind{metric.Utilization, metric.Temperature} {
		r, ok := snap.Get("gpu:0", kind)
		require.True(t, ok)
		assert.False(t, r.Valid)
	}
}

func TestUndeclaredReadingsDropped(t *testing.T) {
	// Declares only utilization but emits temperature too.
	rogue := &fakeAdapter{
		name:    "cpu",
		devices: []metric.Device{device("cpu", metric.Utilization)},
		value:   50,
	}
	s, err := New([]source.Adapter{rogue}, fastOptions())
	require.NoError(t, err)

	extra := metric.NewReading("cpu", metric.Temperature, 99, time.Now())
	merged := make(map[metric.Key]metric.Reading)
	s.merge(merged, []metric.Reading{extra})

	_, ok := merged[extra.Key()]
	assert.False(t, ok)
}

func TestAllSourcesDarkStopsRun(t *testing.T) {
	dead := &fakeAdapter{
		name:    "gpu",
		devices: []metric.Device{device("gpu:0", metric.Utilization)},
		err:     errors.New(errors.ErrUnavailable),
	}
	s, err := New([]source.Adapter{dead}, fastOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err = s.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, ErrNoData))
}

func TestRunRecoversAfterPartialOutage(t *testing.T) {
	// One healthy source keeps the run alive through another's outage.
	healthy := &fakeAdapter{
		name:    "cpu",
		devices: []metric.Device{device("cpu", metric.Utilization)},
		value:   20,
	}
	flaky := &fakeAdapter{
		name:    "gpu",
		devices: []metric.Device{device("gpu:0", metric.Utilization)},
		err:     errors.New(errors.ErrUnavailable),
	}
	s, err := New([]source.Adapter{healthy, flaky}, fastOptions())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := s.RunOnce(context.Background())
		require.NoError(t, err)
	}

	flaky.err = nil
	flaky.value = 60
	snap, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	v, ok := snap.Value("gpu:0", metric.Utilization)
	require.True(t, ok)
	assert.Equal(t, 60.0, v)
}

func TestHistoryRecordsGapsDuringOutage(t *testing.T) {
	flaky := &fakeAdapter{
		name:    "gpu",
		devices: []metric.Device{device("gpu:0", metric.Utilization)},
		value:   30,
	}
	s, err := New([]source.Adapter{flaky}, fastOptions())
	require.NoError(t, err)

	_, err = s.RunOnce(context.Background())
	require.NoError(t, err)

	flaky.err = errors.New(errors.ErrUnavailable)
	_, err = s.RunOnce(context.Background())
	require.NoError(t, err)

	window := s.History().Window("gpu:0", metric.Utilization, 8)
	require.Len(t, window, 2)
	assert.Equal(t, 30.0, window[0])
	assert.True(t, history.IsGap(window[1]))
}

func TestSnapshotsChannelKeepsLatest(t *testing.T) {
	a := &fakeAdapter{
		name:    "cpu",
		devices: []metric.Device{device("cpu", metric.Utilization)},
		value:   1,
	}
	s, err := New([]source.Adapter{a}, fastOptions())
	require.NoError(t, err)

	// Publish twice without consuming; the channel holds the newest.
	_, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	a.value = 2
	_, err = s.RunOnce(context.Background())
	require.NoError(t, err)

	select {
	case snap := <-s.Snapshots():
		v, ok := snap.Value("cpu", metric.Utilization)
		require.True(t, ok)
		assert.Equal(t, 2.0, v)
	default:
		t.Fatal("expected a pending snapshot")
	}
}
