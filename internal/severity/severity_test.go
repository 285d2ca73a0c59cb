package severity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"codeberg.org/mutker/hwtop/internal/metric"
)

func reading(kind metric.Kind, value float64) metric.Reading {
	return metric.NewReading("cpu", kind, value, time.Now())
}

func TestClassifyBands(t *testing.T) {
	tests := []struct {
		name  string
		kind  metric.Kind
		value float64
		want  Tier
	}{
		{"idle utilization", metric.Utilization, 10, Normal},
		{"just below elevated", metric.Utilization, 69.9, Normal},
		{"elevated boundary", metric.Utilization, 70, Elevated},
		{"critical boundary", metric.Utilization, 90, Critical},
		{"hot temperature", metric.Temperature, 95, Critical},
		{"warm temperature", metric.Temperature, 75, Elevated},
		{"cool temperature", metric.Temperature, 40, Normal},
		{"fan ramping", metric.FanSpeed, 80, Elevated},
		{"full drive", metric.DriveUsage, 97, Critical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(reading(tt.kind, tt.value)))
		})
	}
}

func TestClassifyUnavailable(t *testing.T) {
	r := metric.Unavailable("gpu:0", metric.Temperature, time.Now())
	assert.Equal(t, Unknown, Classify(r))
}

func TestClassifyUnbandedKind(t *testing.T) {
	// Kinds without direct bands never alarm on raw values.
	assert.Equal(t, Normal, Classify(reading(metric.NetworkRx, 1e9)))
	assert.Equal(t, Normal, Classify(reading(metric.Power, 700)))
}

func TestClassifyPercent(t *testing.T) {
	assert.Equal(t, Normal, ClassifyPercent(50))
	assert.Equal(t, Elevated, ClassifyPercent(75))
	assert.Equal(t, Critical, ClassifyPercent(99))
}

func TestClassifyIsPure(t *testing.T) {
	// Same input, same answer, regardless of call order.
	r := reading(metric.Temperature, 85)
	first := Classify(r)
	Classify(reading(metric.Temperature, 20))
	assert.Equal(t, first, Classify(r))
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "normal", Normal.String())
	assert.Equal(t, "elevated", Elevated.String())
	assert.Equal(t, "critical", Critical.String())
	assert.Equal(t, "unknown", Unknown.String())
}
