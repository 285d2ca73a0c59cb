// Package severity classifies metric values into display tiers. Classification
// is a pure function of (kind, value); it keeps no state and is safe to call
// fresh on every render.
package severity

import "codeberg.org/mutker/hwtop/internal/metric"

// Tier is the severity classification of a single reading.
type Tier int

const (
	Unknown Tier = iota
	Normal
	Elevated
	Critical
)

func (t Tier) String() string {
	switch t {
	case Normal:
		return "normal"
	case Elevated:
		return "elevated"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// Bands holds the lower bounds of the elevated and critical tiers for one
// kind. Values below Elevated classify as Normal.
type Bands struct {
	Elevated float64
	Critical float64
}

// Default bands. Percent-scaled kinds share the 70/90 bands; temperatures use
// the 70/90 °C bands.
var bandsByKind = map[metric.Kind]Bands{
	metric.Utilization: {Elevated: 70, Critical: 90},
	metric.Temperature: {Elevated: 70, Critical: 90},
	metric.FanSpeed:    {Elevated: 70, Critical: 90},
	metric.DriveUsage:  {Elevated: 70, Critical: 90},
}

// percentBands applies to values already normalized to a 0-100 scale.
var percentBands = Bands{Elevated: 70, Critical: 90}

// Classify maps a reading to its tier. Unavailable readings always classify
// as Unknown so missing data is visually distinct from a bad value. Kinds
// without direct bands (frequencies, power, throughput) classify by their
// percent-of-limit via ClassifyPercent at the call site; here they fall back
// to Normal.
func Classify(r metric.Reading) Tier {
	if !r.Valid {
		return Unknown
	}

	bands, ok := bandsByKind[r.Kind]
	if !ok {
		return Normal
	}

	return tierFor(r.Value, bands)
}

// ClassifyPercent classifies a value already expressed as a percentage of
// its ceiling.
func ClassifyPercent(pct float64) Tier {
	return tierFor(pct, percentBands)
}

func tierFor(v float64, bands Bands) Tier {
	switch {
	case v >= bands.Critical:
		return Critical
	case v >= bands.Elevated:
		return Elevated
	default:
		return Normal
	}
}
