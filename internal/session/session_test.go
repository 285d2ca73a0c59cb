package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mutker/hwtop/internal/metric"
)

func ptr(v float64) *float64 { return &v }

func TestRecordAndSummarize(t *testing.T) {
	collector, err := NewService()
	require.NoError(t, err)
	defer collector.Close()

	ctx := context.Background()
	base := time.Now()
	samples := []*Sample{
		{Tick: 1, At: base, CPUUtil: ptr(20), CPUTemp: ptr(50), RAMPercent: ptr(40)},
		{Tick: 2, At: base.Add(time.Second), CPUUtil: ptr(40), CPUTemp: ptr(70), RAMPercent: ptr(60)},
	}
	for _, s := range samples {
		require.NoError(t, collector.Record(ctx, s))
	}

	summary, err := collector.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Ticks)
	assert.InDelta(t, 30, summary.AvgCPUUtil, 0.001)
	assert.InDelta(t, 70, summary.MaxCPUTemp, 0.001)
	assert.InDelta(t, 50, summary.AvgRAM, 0.001)
}

func TestNullFieldsDoNotSkewAverages(t *testing.T) {
	collector, err := NewService()
	require.NoError(t, err)
	defer collector.Close()

	ctx := context.Background()
	require.NoError(t, collector.Record(ctx, &Sample{Tick: 1, At: time.Now(), GPUUtil: ptr(80)}))
	require.NoError(t, collector.Record(ctx, &Sample{Tick: 2, At: time.Now()}))

	summary, err := collector.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Ticks)
	// AVG ignores NULL rows; the missing tick does not drag it to 40.
	assert.InDelta(t, 80, summary.AvgGPUUtil, 0.001)
}

func TestRecordSameTickOverwrites(t *testing.T) {
	collector, err := NewService()
	require.NoError(t, err)
	defer collector.Close()

	ctx := context.Background()
	require.NoError(t, collector.Record(ctx, &Sample{Tick: 1, At: time.Now(), CPUUtil: ptr(10)}))
	require.NoError(t, collector.Record(ctx, &Sample{Tick: 1, At: time.Now(), CPUUtil: ptr(30)}))

	summary, err := collector.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Ticks)
	assert.InDelta(t, 30, summary.AvgCPUUtil, 0.001)
}

func TestRecordNilSample(t *testing.T) {
	collector, err := NewService()
	require.NoError(t, err)
	defer collector.Close()

	assert.Error(t, collector.Record(context.Background(), nil))
}

func TestNoopCollector(t *testing.T) {
	collector := NewNoop()
	assert.NoError(t, collector.Record(context.Background(), nil))

	summary, err := collector.Summarize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Ticks)
	assert.NoError(t, collector.Close())
}

func TestFromSnapshot(t *testing.T) {
	at := time.Now()
	readings := map[metric.Key]metric.Reading{
		{Device: "cpu", Kind: metric.Utilization}:         metric.NewReading("cpu", metric.Utilization, 42, at),
		{Device: "thermal:cpu", Kind: metric.Temperature}: metric.NewReading("thermal:cpu", metric.Temperature, 55, at),
		{Device: "ram", Kind: metric.Utilization}:         metric.NewReading("ram", metric.Utilization, 60, at),
		{Device: "gpu:0", Kind: metric.Utilization}:       metric.Unavailable("gpu:0", metric.Utilization, at),
		{Device: "gpu:0", Kind: metric.Power}:             metric.NewReading("gpu:0", metric.Power, 150, at),
	}
	snap := metric.NewSnapshot(3, at, readings)

	sample := FromSnapshot(snap, "gpu:0")
	assert.Equal(t, uint64(3), sample.Tick)
	require.NotNil(t, sample.CPUUtil)
	assert.Equal(t, 42.0, *sample.CPUUtil)
	require.NotNil(t, sample.CPUTemp)
	assert.Equal(t, 55.0, *sample.CPUTemp)
	require.NotNil(t, sample.RAMPercent)
	assert.Equal(t, 60.0, *sample.RAMPercent)

	// Unavailable readings stay nil.
	assert.Nil(t, sample.GPUUtil)
	require.NotNil(t, sample.GPUPower)
	assert.Equal(t, 150.0, *sample.GPUPower)

	// No GPU at all.
	headless := FromSnapshot(snap, "")
	assert.Nil(t, headless.GPUPower)
}
