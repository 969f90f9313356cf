// Package snapshot combines one cycle's procfs reads and tracker output
// into a single immutable Snapshot value, the unit the ring buffer and dump
// writer both operate over.
package snapshot

// ProcEntry is one process's contribution to a Snapshot's ranked views.
type ProcEntry struct {
	PID        int32
	Comm       string
	CPUPercent float64
	RSSKiB     uint64
}

// CPUBlock is the CPU portion of a Snapshot.
type CPUBlock struct {
	GlobalPercent float64
	PerCorePct    []float64
}

// MemBlock is the memory portion of a Snapshot, all values in KiB.
type MemBlock struct {
	TotalKiB     uint64
	AvailableKiB uint64
	FreeKiB      uint64
	ActiveKiB    uint64
	InactiveKiB  uint64
	DirtyKiB     uint64
	SlabKiB      uint64
	SwapTotalKiB uint64
	SwapFreeKiB  uint64
	ShmemKiB     uint64
}

// Snapshot is a value type: copied into the ring buffer and again into a
// dump's trailing window, never shared by reference across a mutex
// boundary.
type Snapshot struct {
	TimestampNs  uint64
	CPU          CPUBlock
	Mem          MemBlock
	TopByCPU     []ProcEntry
	TopByRSS     []ProcEntry
}

// Timestamp implements ringbuffer.Entry.
func (s Snapshot) Timestamp() uint64 { return s.TimestampNs }
