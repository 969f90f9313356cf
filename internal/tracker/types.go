// Package tracker maintains per-PID CPU history across collection cycles,
// computing CPU% deltas and a smoothed per-PID baseline. A sample's
// BaselineCPU is the EMA after this cycle's cpu_pct has been folded into
// the previous cycle's baseline, and that is the value the anomaly
// detector compares cpu_pct against.
package tracker

// Sample is one PID's tracker-internal state for the most recent cycle.
type Sample struct {
	PID            int32
	PPID           int32
	PGID           int32
	Comm           string
	Ticks          uint64
	RSSKiB         uint64
	CPUPercent     float64
	BaselineCPU    float64
	SampleCount    uint8
	IsNew          bool
}
