package metric

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceCapabilities(t *testing.T) {
	d := Device{
		ID:     "gpu:0",
		Vendor: VendorNvidia,
		Caps:   []Kind{Utilization, Temperature},
		Limits: map[Kind]float64{Power: 320},
	}

	assert.True(t, d.Has(Utilization))
	assert.False(t, d.Has(FanSpeed))
	assert.Equal(t, 320.0, d.Limit(Power))
	assert.Equal(t, 0.0, d.Limit(Temperature))
}

func TestLimitWithoutMap(t *testing.T) {
	d := Device{ID: "ram"}
	assert.Equal(t, 0.0, d.Limit(MemoryTotal))
}

func TestSnapshotLookup(t *testing.T) {
	at := time.Now()
	readings := map[Key]Reading{
		{Device: "cpu", Kind: Utilization}:   NewReading("cpu", Utilization, 42, at),
		{Device: "gpu:0", Kind: Temperature}: Unavailable("gpu:0", Temperature, at),
		{Device: "gpu:0", Kind: Utilization}: NewReading("gpu:0", Utilization, 10, at),
	}
	snap := NewSnapshot(7, at, readings)

	assert.Equal(t, uint64(7), snap.Tick())
	assert.Equal(t, 3, snap.Len())
	assert.Equal(t, 2, snap.ValidCount())

	v, ok := snap.Value("cpu", Utilization)
	require.True(t, ok)
	assert.Equal(t, 42.0, v)

	// Unavailable readings are present but carry no value.
	r, ok := snap.Get("gpu:0", Temperature)
	require.True(t, ok)
	assert.False(t, r.Valid)
	_, ok = snap.Value("gpu:0", Temperature)
	assert.False(t, ok)

	_, ok = snap.Get("net:eth0", NetworkRx)
	assert.False(t, ok)
}

func TestSnapshotCopiesInput(t *testing.T) {
	at := time.Now()
	readings := map[Key]Reading{
		{Device: "cpu", Kind: Utilization}: NewReading("cpu", Utilization, 42, at),
	}
	snap := NewSnapshot(1, at, readings)

	readings[Key{Device: "cpu", Kind: Utilization}] = NewReading("cpu", Utilization, 99, at)

	v, ok := snap.Value("cpu", Utilization)
	require.True(t, ok)
	assert.Equal(t, 42.0, v)
}

func TestKindSpecs(t *testing.T) {
	assert.Equal(t, "utilization", Utilization.String())
	assert.Equal(t, UnitPercent, Utilization.Unit())
	assert.Equal(t, UnitCelsius, Temperature.Unit())

	assert.True(t, Utilization.InRange(100))
	assert.False(t, Utilization.InRange(101))
	assert.False(t, Temperature.InRange(-5))

	// Unbounded kinds only reject negatives.
	assert.True(t, NetworkRx.InRange(1e12))
	assert.False(t, NetworkRx.InRange(-1))
}

func TestReadingKey(t *testing.T) {
	r := NewReading("drive:nvme0n1", DriveRead, 1024, time.Now())
	assert.Equal(t, Key{Device: "drive:nvme0n1", Kind: DriveRead}, r.Key())
}
