// Package anomaly implements the stateful anomaly evaluator: per-scope
// cooldown suppression, CPU-delta/new-process detection over the process
// tracker's current samples, and EMA-baselined memory/swap detection.
package anomaly

// Scope is the equivalence class under which independent CPU anomalies are
// suppressed by the cooldown table.
type Scope int

const (
	ScopePerProcess Scope = iota
	ScopeProcessGroup
	ScopeParent
	ScopeSystemWide
)

// Key maps a sample's PID/PGID/PPID to the single integer key the cooldown
// table actually stores, per the configured Scope. SystemWide always maps
// to the constant 0.
func (s Scope) Key(pid, pgid, ppid int32) int64 {
	switch s {
	case ScopeProcessGroup:
		return int64(pgid)
	case ScopeParent:
		return int64(ppid)
	case ScopeSystemWide:
		return 0
	default:
		return int64(pid)
	}
}

// Kind tags the category of an AnomalyResult.
type Kind int

const (
	KindNone Kind = iota
	KindCpuDelta
	KindCpuNewProc
	KindMemDrop
	KindMemPressure
	KindSwapSpike
)

// Result is the tagged outcome of one evaluate() call.
type Result struct {
	Kind      Kind
	PID       int32
	Comm      string
	Current   float64
	Baseline  float64
	Delta     float64
	ScopeKind Scope
	ScopeKey  int64
}

// None is the zero-value "nothing fired" result.
var None = Result{Kind: KindNone}

// ema is the small reusable "seed then update" baseline abstraction used
// identically by the memory and swap detectors.
type ema struct {
	value         float64
	initialized   bool
	triggered     bool
	lastTriggerNs int64
}

// seedOrValue returns the baseline to compare against for this call. On the
// very first call it seeds the baseline to x and reports seeded=true so the
// caller can skip firing.
func (e *ema) seedOrValue(x float64) (baseline float64, seeded bool) {
	if !e.initialized {
		e.value = x
		e.initialized = true
		return e.value, true
	}
	return e.value, false
}

// update folds x into the EMA with smoothing factor alpha.
func (e *ema) update(alpha, x float64) {
	e.value = alpha*x + (1-alpha)*e.value
}

// State is the detector's persistent state across ticks: the cooldown
// table plus the memory and swap EMA baselines. A configuration reload
// re-initializes State entirely; baselines are never persisted across
// process restarts.
type State struct {
	Cooldown *CooldownTable
	memEMA   ema
	swapEMA  ema
}

// NewState builds a fresh detector state with an empty cooldown table.
func NewState() *State {
	return &State{Cooldown: NewCooldownTable()}
}
