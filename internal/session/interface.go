// Package session records per-tick headline statistics for the lifetime of
// one dashboard run. Samples go into an in-memory sqlite database and are
// summarized once on exit; nothing is persisted across runs.
package session

import (
	"context"
	"time"
)

// Collector receives one sample per tick and produces the exit summary.
type Collector interface {
	Record(ctx context.Context, sample *Sample) error
	Summarize(ctx context.Context) (*Summary, error)
	Close() error
}

// Sample is the headline slice of one snapshot. Missing readings stay nil
// so unavailable ticks do not skew the averages.
type Sample struct {
	Tick       uint64
	At         time.Time
	CPUUtil    *float64
	CPUTemp    *float64
	GPUUtil    *float64
	GPUTemp    *float64
	GPUPower   *float64
	RAMPercent *float64
}

// Summary aggregates a whole run.
type Summary struct {
	Ticks       int
	Start       time.Time
	End         time.Time
	AvgCPUUtil  float64
	MaxCPUTemp  float64
	AvgGPUUtil  float64
	MaxGPUTemp  float64
	AvgGPUPower float64
	AvgRAM      float64
}
