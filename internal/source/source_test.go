package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mutker/hwtop/internal/metric"
)

func TestNormalizeSensorKey(t *testing.T) {
	tests := []struct {
		key   string
		name  string
		class sensorClass
	}{
		{"coretemp_package_id_0", "CPU", sensorPackage},
		{"coretemp_core_0", "Core 0", sensorCore},
		{"coretemp_core_12", "Core 12", sensorCore},
		{"k10temp_tctl", "CPU", sensorPackage},
		{"k10temp_tdie", "CPU", sensorPackage},
		{"nvme_composite", "NVMe", sensorComponent},
		{"nvme_sensor_1", "NVMe", sensorComponent},
		{"drivetemp_sda", "Drive", sensorComponent},
		{"acpitz", "Motherboard", sensorComponent},
		{"spd5118_temp1", "RAM", sensorComponent},
		{"iwlwifi_1_temp1", "Wi-Fi", sensorComponent},
		{"amdgpu_edge", "Amdgpu", sensorComponent},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			name, class := normalizeSensorKey(tt.key)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.class, class)
		})
	}
}

func TestInterestingInterface(t *testing.T) {
	assert.True(t, interestingInterface("wlan0", 100, 0))
	assert.True(t, interestingInterface("enp5s0", 0, 200))

	assert.False(t, interestingInterface("lo", 100, 100))
	assert.False(t, interestingInterface("veth12ab", 100, 100))
	assert.False(t, interestingInterface("br-0a1b2c", 100, 100))
	assert.False(t, interestingInterface("wlan1", 0, 0))
}

func TestCounterRate(t *testing.T) {
	assert.Equal(t, 100.0, counterRate(1100, 1000, 1))
	assert.Equal(t, 50.0, counterRate(1100, 1000, 2))

	// Counter wrap reports zero rather than a huge negative rate.
	assert.Equal(t, 0.0, counterRate(10, 1000, 1))
	assert.Equal(t, 0.0, counterRate(100, 0, 0))
}

func TestCleanCPUBrand(t *testing.T) {
	assert.Equal(t, "i7-12700K", cleanCPUBrand("Intel(R) Core(TM) i7-12700K"))
	assert.Equal(t, "AMD Ryzen 9 5950X", cleanCPUBrand("AMD Ryzen 9 5950X"))
}

func TestAllUnavailable(t *testing.T) {
	at := time.Now()
	devices := []metric.Device{
		{ID: "gpu:0", Caps: []metric.Kind{metric.Utilization, metric.Temperature}},
		{ID: "gpu:0:fan:0", Caps: []metric.Kind{metric.FanSpeed}},
	}

	readings := AllUnavailable(devices, at)
	require.Len(t, readings, 3)
	for _, r := range readings {
		assert.False(t, r.Valid)
		assert.Equal(t, at, r.At)
	}
}

func TestDeviceIDs(t *testing.T) {
	assert.Equal(t, metric.DeviceID("cpu:core:3"), CoreID(3))
	assert.Equal(t, metric.DeviceID("gpu:1"), GPUID(1))
	assert.Equal(t, metric.DeviceID("gpu:0:fan:1"), FanID(0, 1))
	assert.Equal(t, metric.DeviceID("net:wlan0"), NetID("wlan0"))
	assert.Equal(t, metric.DeviceID("drive:nvme0n1"), DriveID("nvme0n1"))
	assert.Equal(t, metric.DeviceID("thermal:core:2"), CoreTempID(2))
}

func TestPcieLaneThroughput(t *testing.T) {
	assert.Equal(t, 250, pcieLaneMBps(1))
	assert.Equal(t, 985, pcieLaneMBps(3))
	assert.Equal(t, 3938, pcieLaneMBps(5))
	// Unknown generations assume gen 4.
	assert.Equal(t, 1969, pcieLaneMBps(9))
}
