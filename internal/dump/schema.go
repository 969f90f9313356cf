package dump

// File is the top-level JSON object written for one spike dump.
type File struct {
	SchemaVersion   int        `json:"schema_version"`
	CreatedAt       string     `json:"created_at"`
	UptimeSeconds   float64    `json:"uptime_seconds"`
	DumpTimestampNs uint64     `json:"dump_timestamp_ns"`
	Trigger         Trigger    `json:"trigger"`
	Snapshots       []Snapshot `json:"snapshots"`
}

// SchemaVersion is the current dump schema's version number.
const SchemaVersion = 4

// Policy describes the cooldown scope under which a trigger was recorded.
type Policy struct {
	Scope       string `json:"scope"`
	ScopeKey    int64  `json:"scope_key"`
	Description string `json:"description"`
}

// Trigger carries the anomaly that caused this dump, its attributed
// process (when one applies), and the cooldown policy in effect.
type Trigger struct {
	Type            string  `json:"type"`
	TypeDescription string  `json:"type_description"`
	PID             int32   `json:"pid,omitempty"`
	Comm            string  `json:"comm,omitempty"`
	CPUPct          float64 `json:"cpu_pct,omitempty"`
	BaselinePct     float64 `json:"baseline_pct,omitempty"`
	DeltaPct        float64 `json:"delta_pct,omitempty"`
	MemAvailableKiB uint64  `json:"mem_available_kib,omitempty"`
	MemAvailableMiB float64 `json:"mem_available_mib,omitempty"`
	MemBaselineKiB  uint64  `json:"mem_baseline_kib,omitempty"`
	MemDeltaKiB     float64 `json:"mem_delta_kib,omitempty"`
	SwapUsedKiB     uint64  `json:"swap_used_kib,omitempty"`
	SwapBaselineKiB uint64  `json:"swap_baseline_kib,omitempty"`
	SwapDeltaKiB    float64 `json:"swap_delta_kib,omitempty"`
	Policy          Policy  `json:"policy"`
}

// CPU is one snapshot's CPU utilization block.
type CPU struct {
	GlobalPct  float64   `json:"global_pct"`
	PerCorePct []float64 `json:"per_core_pct"`
}

// Mem is one snapshot's memory block, with paired KiB/MiB fields and the
// computed used percentage.
type Mem struct {
	TotalKiB     uint64  `json:"total_kib"`
	TotalMiB     float64 `json:"total_mib"`
	AvailableKiB uint64  `json:"available_kib"`
	AvailableMiB float64 `json:"available_mib"`
	FreeKiB      uint64  `json:"free_kib"`
	FreeMiB      float64 `json:"free_mib"`
	ActiveKiB    uint64  `json:"active_kib"`
	InactiveKiB  uint64  `json:"inactive_kib"`
	DirtyKiB     uint64  `json:"dirty_kib"`
	SlabKiB      uint64  `json:"slab_kib"`
	SwapTotalKiB uint64  `json:"swap_total_kib"`
	SwapTotalMiB float64 `json:"swap_total_mib"`
	SwapFreeKiB  uint64  `json:"swap_free_kib"`
	SwapFreeMiB  float64 `json:"swap_free_mib"`
	ShmemKiB     uint64  `json:"shmem_kib"`
	UsedPct      float64 `json:"used_pct"`
}

// Proc is one ranked process entry within a snapshot.
type Proc struct {
	PID    int32   `json:"pid"`
	Comm   string  `json:"comm"`
	CPUPct float64 `json:"cpu_pct"`
	RSSKiB uint64  `json:"rss_kib"`
	RSSMiB float64 `json:"rss_mib"`
}

// Snapshot is one entry of the trailing window, newest-first.
type Snapshot struct {
	TimestampNs   uint64  `json:"timestamp_ns"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	OffsetSeconds float64 `json:"offset_seconds"`
	CPU           CPU     `json:"cpu"`
	Mem           Mem     `json:"mem"`
	Procs         []Proc  `json:"procs"`
	TopRSSProcs   []Proc  `json:"top_rss_procs"`
}

func kib2mib(kib uint64) float64 {
	return float64(kib) / 1024
}
