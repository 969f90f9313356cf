package tracker

import (
	"sort"
	"sync"

	"github.com/kodflow/spiketrace/internal/procfs"
)

const (
	// maxSampleCount is where the observation counter saturates.
	maxSampleCount = 255
	// maxCommLen bounds the stored command-name length.
	maxCommLen = 15
)

// Option configures a Tracker at construction time.
type Option func(*Tracker)

// WithBaselineAlpha sets the EMA smoothing factor applied to cpu_pct when
// updating baseline_cpu_pct.
func WithBaselineAlpha(alpha float64) Option {
	return func(t *Tracker) { t.alpha = alpha }
}

// WithMaxTracked bounds how many PIDs a single Update call retains.
func WithMaxTracked(n int) Option {
	return func(t *Tracker) { t.maxTracked = n }
}

// Tracker maintains the previous cycle's per-PID samples and produces a
// fresh sample set on every Update call.
type Tracker struct {
	mu             sync.Mutex
	alpha          float64
	maxTracked     int
	previous       map[int32]Sample
	lastTotalTicks uint64
	firstCall      bool
}

// New builds a Tracker with the given options. Defaults: alpha=0.3,
// maxTracked=1024 (unbounded in practice, spec's hard cap is applied by
// Config validation before this point).
func New(opts ...Option) *Tracker {
	t := &Tracker{
		alpha:      0.3,
		maxTracked: 1024,
		previous:   make(map[int32]Sample),
		firstCall:  true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Update folds a fresh procfs read into the tracker's per-PID history and
// returns the new sample set. totalTicksNow is the system-wide aggregate
// jiffy total (sum of all CPU states) for the same instant as stats.
func (t *Tracker) Update(stats []procfs.ProcStat, totalTicksNow uint64) []Sample {
	t.mu.Lock()
	defer t.mu.Unlock()

	var totalDelta uint64
	if !t.firstCall && totalTicksNow > t.lastTotalTicks {
		totalDelta = totalTicksNow - t.lastTotalTicks
	}
	isFirstCall := t.firstCall
	t.firstCall = false
	t.lastTotalTicks = totalTicksNow

	limit := len(stats)
	if t.maxTracked > 0 && limit > t.maxTracked {
		limit = t.maxTracked
	}

	next := make(map[int32]Sample, limit)
	out := make([]Sample, 0, limit)

	for i := 0; i < limit; i++ {
		st := stats[i]
		comm := st.Comm
		if len(comm) > maxCommLen {
			comm = comm[:maxCommLen]
		}

		sample := Sample{
			PID:    st.PID,
			PPID:   st.PPID,
			PGID:   st.PGID,
			Comm:   comm,
			Ticks:  st.Ticks,
			RSSKiB: st.RSSKiB,
		}

		prev, found := t.previous[st.PID]

		// cpu_pct comes from the tick delta alone. The EMA below then folds
		// it into the previous baseline, so the returned BaselineCPU already
		// includes this tick's cpu_pct.
		if !isFirstCall && totalDelta > 0 && found && st.Ticks >= prev.Ticks {
			procDelta := st.Ticks - prev.Ticks
			sample.CPUPercent = 100 * float64(procDelta) / float64(totalDelta)
		}

		if found {
			sample.IsNew = false
			sample.SampleCount = saturateInc(prev.SampleCount)
			sample.BaselineCPU = t.alpha*sample.CPUPercent + (1-t.alpha)*prev.BaselineCPU
		} else {
			sample.IsNew = true
			sample.SampleCount = 1
			sample.BaselineCPU = sample.CPUPercent
		}

		next[st.PID] = sample
		out = append(out, sample)
	}

	t.previous = next
	return out
}

func saturateInc(n uint8) uint8 {
	if n >= maxSampleCount {
		return maxSampleCount
	}
	return n + 1
}

// TopByCPU returns up to n samples ordered by CPU% descending, ties broken
// by RSS descending then PID ascending for determinism.
func TopByCPU(samples []Sample, n int) []Sample {
	ranked := append([]Sample(nil), samples...)
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.CPUPercent != b.CPUPercent {
			return a.CPUPercent > b.CPUPercent
		}
		if a.RSSKiB != b.RSSKiB {
			return a.RSSKiB > b.RSSKiB
		}
		return a.PID < b.PID
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// TopByRSS returns up to n samples ordered by RSS descending, ties broken
// by CPU% descending then PID ascending.
func TopByRSS(samples []Sample, n int) []Sample {
	ranked := append([]Sample(nil), samples...)
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.RSSKiB != b.RSSKiB {
			return a.RSSKiB > b.RSSKiB
		}
		if a.CPUPercent != b.CPUPercent {
			return a.CPUPercent > b.CPUPercent
		}
		return a.PID < b.PID
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
