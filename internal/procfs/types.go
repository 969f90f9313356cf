// Package procfs decodes the Linux kernel's procfs text files into typed
// records. Every reader here is a pure function from "current procfs
// contents" to a struct: no state is retained between calls, and a PID that
// disappears between directory scan and file open is a recoverable miss.
package procfs

// CPUTicks holds the raw jiffy counters for one CPU line of /proc/stat
// ("cpu" for the aggregate, "cpuN" for core N).
type CPUTicks struct {
	User      uint64
	Nice      uint64
	System    uint64
	Idle      uint64
	IOWait    uint64
	IRQ       uint64
	SoftIRQ   uint64
	Steal     uint64
	Guest     uint64
	GuestNice uint64
}

// Total returns the jiffies counted toward utilization. Guest and GuestNice
// are excluded: the kernel already folds them into User/Nice, and summing
// both would double-count guest time.
func (t CPUTicks) Total() uint64 {
	return t.User + t.Nice + t.System + t.Idle + t.IOWait + t.IRQ + t.SoftIRQ + t.Steal
}

// Idles returns the jiffies counted as idle (idle + iowait).
func (t CPUTicks) Idles() uint64 {
	return t.Idle + t.IOWait
}

// CPUStat is a full decode of /proc/stat's CPU lines.
type CPUStat struct {
	Aggregate CPUTicks
	PerCore   []CPUTicks
}

// MemInfo is a decode of the /proc/meminfo labels spiketrace tracks. All
// values are in KiB; a label absent from the file defaults to 0.
type MemInfo struct {
	TotalKiB     uint64
	FreeKiB      uint64
	AvailableKiB uint64
	ActiveKiB    uint64
	InactiveKiB  uint64
	DirtyKiB     uint64
	SlabKiB      uint64
	SwapTotalKiB uint64
	SwapFreeKiB  uint64
	ShmemKiB     uint64
}

// ProcStat is the raw per-PID decode of /proc/<pid>/stat and
// /proc/<pid>/statm, before any CPU% or baseline computation.
type ProcStat struct {
	PID     int32
	PPID    int32
	PGID    int32
	Comm    string
	Ticks   uint64 // utime + stime
	RSSKiB  uint64
}
