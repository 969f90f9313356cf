package snapshot

import (
	"time"

	"github.com/kodflow/spiketrace/internal/procfs"
	"github.com/kodflow/spiketrace/internal/tracker"
)

// Builder is a stateful façade owning the previous CPU jiffies reading and
// a ProcessTracker. Collect() is best-effort partial: a source that fails
// leaves its sub-block zeroed rather than aborting the whole snapshot, so a
// transient procfs read failure never starves the ring buffer.
type Builder struct {
	cpuReader  *procfs.CPUReader
	memReader  *procfs.MemReader
	procReader *procfs.ProcessReader
	tracker    *tracker.Tracker

	prevCPU     procfs.CPUStat
	haveCPU     bool
	topN        int
	lastSamples []tracker.Sample
}

// Option configures a Builder.
type Option func(*Builder)

// WithTopN sets the top_processes_stored limit for ranked views.
func WithTopN(n int) Option {
	return func(b *Builder) { b.topN = n }
}

// New builds a Builder using the real /proc filesystem.
func New(trk *tracker.Tracker, opts ...Option) *Builder {
	b := &Builder{
		cpuReader:  procfs.NewCPUReader(),
		memReader:  procfs.NewMemReader(),
		procReader: procfs.NewProcessReader(),
		tracker:    trk,
		topN:       20,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewWithPath builds a Builder rooted at a fake /proc tree, for tests.
func NewWithPath(procPath string, trk *tracker.Tracker, opts ...Option) *Builder {
	b := New(trk, opts...)
	b.cpuReader = procfs.NewCPUReaderWithPath(procPath)
	b.memReader = procfs.NewMemReaderWithPath(procPath)
	b.procReader = procfs.NewProcessReaderWithPath(procPath)
	return b
}

// Collect reads all sources for one cycle and assembles a Snapshot. It
// always returns success once the timestamp is stamped; any individual
// source failure is swallowed and leaves that sub-block zeroed.
func (b *Builder) Collect() Snapshot {
	snap := Snapshot{TimestampNs: uint64(time.Now().UnixNano())}

	var currentTotalTicks uint64
	if cpuStat, err := b.cpuReader.ReadStat(); err == nil {
		snap.CPU = buildCPUBlock(b.prevCPU, cpuStat, b.haveCPU)
		currentTotalTicks = cpuStat.Aggregate.Total()
		b.prevCPU = cpuStat
		b.haveCPU = true
	}

	if mem, err := b.memReader.ReadMemInfo(); err == nil {
		snap.Mem = MemBlock{
			TotalKiB:     mem.TotalKiB,
			AvailableKiB: mem.AvailableKiB,
			FreeKiB:      mem.FreeKiB,
			ActiveKiB:    mem.ActiveKiB,
			InactiveKiB:  mem.InactiveKiB,
			DirtyKiB:     mem.DirtyKiB,
			SlabKiB:      mem.SlabKiB,
			SwapTotalKiB: mem.SwapTotalKiB,
			SwapFreeKiB:  mem.SwapFreeKiB,
			ShmemKiB:     mem.ShmemKiB,
		}
	}

	if procs, err := b.procReader.ReadAll(); err == nil {
		samples := b.tracker.Update(procs, currentTotalTicks)
		snap.TopByCPU = toEntries(tracker.TopByCPU(samples, b.topN))
		snap.TopByRSS = toEntries(tracker.TopByRSS(samples, b.topN))
		b.lastSamples = samples
	}

	return snap
}

// LastSamples returns the full per-process sample set produced by the most
// recent Collect call — the unranked, untruncated view the anomaly detector
// needs (Snapshot itself only retains the top-N ranked entries).
func (b *Builder) LastSamples() []tracker.Sample {
	return b.lastSamples
}

func buildCPUBlock(prev, curr procfs.CPUStat, havePrev bool) CPUBlock {
	block := CPUBlock{PerCorePct: make([]float64, len(curr.PerCore))}
	if !havePrev {
		return block
	}
	block.GlobalPercent = procfs.CorePercent(prev.Aggregate, curr.Aggregate)
	for i, core := range curr.PerCore {
		if i < len(prev.PerCore) {
			block.PerCorePct[i] = procfs.CorePercent(prev.PerCore[i], core)
		}
	}
	return block
}

func toEntries(samples []tracker.Sample) []ProcEntry {
	out := make([]ProcEntry, len(samples))
	for i, s := range samples {
		out[i] = ProcEntry{PID: s.PID, Comm: s.Comm, CPUPercent: s.CPUPercent, RSSKiB: s.RSSKiB}
	}
	return out
}
