package anomaly

import (
	"github.com/kodflow/spiketrace/internal/snapshot"
	"github.com/kodflow/spiketrace/internal/tracker"
)

// Params is the subset of configuration the detector needs on every
// evaluate() call. It is a plain value so the Supervisor can snapshot it
// under the config mutex without holding the lock across evaluation.
type Params struct {
	CPUDeltaThresholdPct     float64
	NewProcessThresholdPct   float64
	MemDropThresholdKiB      float64
	MemPressureThresholdPct  float64
	SwapSpikeThresholdKiB    float64
	CooldownNs               int64
	Scope                    Scope
	MemoryBaselineAlpha      float64
	EnableCPUDetection       bool
	EnableMemoryDetection    bool
	EnableSwapDetection      bool
}

// Evaluate runs the priority-ordered detection pass: CPU first, then
// memory, then swap. Only the single highest-priority non-None result is
// returned; at most one anomaly fires per tick.
func Evaluate(p Params, state *State, samples []tracker.Sample, mem snapshot.MemBlock, nowNs int64) Result {
	if p.EnableCPUDetection {
		if r := evaluateCPU(p, state, samples, nowNs); r.Kind != KindNone {
			return r
		}
	}
	if p.EnableMemoryDetection && mem.TotalKiB != 0 {
		if r := evaluateMemory(p, state, samples, mem, nowNs); r.Kind != KindNone {
			return r
		}
	}
	if p.EnableSwapDetection && mem.SwapTotalKiB != 0 {
		if r := evaluateSwap(p, state, samples, mem, nowNs); r.Kind != KindNone {
			return r
		}
	}
	return None
}

// evaluateCPU picks the single highest-score candidate across all samples
// not currently in cooldown. Ties break by lowest PID for determinism.
func evaluateCPU(p Params, state *State, samples []tracker.Sample, nowNs int64) Result {
	var best Result
	var bestScore float64
	haveBest := false

	for _, s := range samples {
		key := p.Scope.Key(s.PID, s.PGID, s.PPID)
		if state.Cooldown.Active(key, nowNs, p.CooldownNs) {
			continue
		}

		var candidate Result
		var score float64
		switch {
		case s.SampleCount <= 2 && s.CPUPercent >= p.NewProcessThresholdPct:
			candidate = Result{
				Kind: KindCpuNewProc, PID: s.PID, Comm: s.Comm,
				Current: s.CPUPercent, Baseline: s.BaselineCPU, Delta: s.CPUPercent,
				ScopeKind: p.Scope, ScopeKey: key,
			}
			score = s.CPUPercent
		case s.SampleCount > 2 && (s.CPUPercent-s.BaselineCPU) >= p.CPUDeltaThresholdPct:
			delta := s.CPUPercent - s.BaselineCPU
			candidate = Result{
				Kind: KindCpuDelta, PID: s.PID, Comm: s.Comm,
				Current: s.CPUPercent, Baseline: s.BaselineCPU, Delta: delta,
				ScopeKind: p.Scope, ScopeKey: key,
			}
			score = delta
		default:
			continue
		}

		if !haveBest || score > bestScore || (score == bestScore && candidate.PID < best.PID) {
			best, bestScore, haveBest = candidate, score, true
		}
	}

	if !haveBest {
		return None
	}
	state.Cooldown.Record(best.ScopeKey, nowNs)
	return best
}

// evaluateMemory seeds the EMA on first call (returning None) and
// thereafter fires MemDrop or MemPressure per the spec's priority order,
// always updating the EMA regardless of outcome.
func evaluateMemory(p Params, state *State, samples []tracker.Sample, mem snapshot.MemBlock, nowNs int64) Result {
	available := float64(mem.AvailableKiB)
	baseline, seeded := state.memEMA.seedOrValue(available)
	if seeded {
		return None
	}

	result := None
	inCooldown := state.memEMA.triggered && nowNs-state.memEMA.lastTriggerNs < p.CooldownNs

	if !inCooldown {
		total := float64(mem.TotalKiB)
		usedPct := 100 * (total - available) / total
		delta := available - baseline

		switch {
		case delta < 0 && -delta >= p.MemDropThresholdKiB:
			result = Result{Kind: KindMemDrop, Current: available, Baseline: baseline, Delta: delta}
		case usedPct >= p.MemPressureThresholdPct:
			result = Result{Kind: KindMemPressure, Current: available, Baseline: baseline, Delta: delta}
		}

		if result.Kind != KindNone {
			if top := topRSS(samples); top != nil {
				result.PID = top.PID
				result.Comm = top.Comm
			}
			state.memEMA.lastTriggerNs = nowNs
			state.memEMA.triggered = true
		}
	}

	state.memEMA.update(p.MemoryBaselineAlpha, available)
	return result
}

// evaluateSwap mirrors evaluateMemory over swap_used = swap_total -
// swap_free.
func evaluateSwap(p Params, state *State, samples []tracker.Sample, mem snapshot.MemBlock, nowNs int64) Result {
	used := float64(mem.SwapTotalKiB - mem.SwapFreeKiB)
	baseline, seeded := state.swapEMA.seedOrValue(used)
	if seeded {
		return None
	}

	result := None
	inCooldown := state.swapEMA.triggered && nowNs-state.swapEMA.lastTriggerNs < p.CooldownNs

	if !inCooldown {
		delta := used - baseline
		if delta >= p.SwapSpikeThresholdKiB {
			result = Result{Kind: KindSwapSpike, Current: used, Baseline: baseline, Delta: delta}
			if top := topRSS(samples); top != nil {
				result.PID = top.PID
				result.Comm = top.Comm
			}
			state.swapEMA.lastTriggerNs = nowNs
			state.swapEMA.triggered = true
		}
	}

	state.swapEMA.update(p.MemoryBaselineAlpha, used)
	return result
}

func topRSS(samples []tracker.Sample) *tracker.Sample {
	if len(samples) == 0 {
		return nil
	}
	top := tracker.TopByRSS(samples, 1)
	if len(top) == 0 {
		return nil
	}
	return &top[0]
}
