// Package dump serializes a triggering anomaly and its trailing window of
// snapshots into a single JSON file, published atomically via
// write-tmp/fsync/rename so a reader never observes a partially written
// dump.
package dump

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/kodflow/spiketrace/internal/anomaly"
	"github.com/kodflow/spiketrace/internal/errs"
	"github.com/kodflow/spiketrace/internal/snapshot"
)

// maxDumpBytes bounds the serialized dump size; a dump that would exceed it
// fails without writing a file rather than growing unbounded.
const maxDumpBytes = 1 << 20 // 1 MiB

// counter is a process-local monotonic integer guaranteeing a unique
// filename within one process-second.
var counter uint64

// Indexer records one dump file's metadata for the retention housekeeper.
// Satisfied by retention.DumpIndexAdapter; kept as an interface here so dump does not
// import retention and gain a bbolt dependency it otherwise has no use for.
type Indexer interface {
	Record(rec IndexRecord) error
}

// IndexRecord mirrors retention.Record's fields without importing the
// retention package.
type IndexRecord struct {
	Filename    string
	CreatedAtNs int64
	SizeBytes   int64
	TriggerKind string
}

// Writer owns the output directory and the process start time used to
// compute uptime_seconds.
type Writer struct {
	dir       string
	startedAt time.Time
	index     Indexer
}

// New builds a Writer over outputDir, which must already exist.
func New(outputDir string) *Writer {
	return &Writer{dir: outputDir, startedAt: time.Now()}
}

// WithIndex attaches a retention index; every successful Write also records
// an IndexRecord so the housekeeper can enforce its cleanup policy without
// re-stat-ing the output directory.
func (w *Writer) WithIndex(idx Indexer) *Writer {
	w.index = idx
	return w
}

// Write serializes trigger plus the trailing window (newest-first) into
// one JSON file and atomically publishes it into the output directory.
// Dump failures are always non-fatal: the caller logs and discards them,
// the detector's cooldown has already been recorded regardless of outcome.
func (w *Writer) Write(window []snapshot.Snapshot, trigger anomaly.Result, triggerTimestampNs uint64) error {
	if len(window) == 0 {
		return errs.New("dump", errs.KindInvalidParam, fmt.Errorf("empty trailing window"))
	}

	file := buildFile(window, trigger, triggerTimestampNs, w.startedAt)

	data, err := json.Marshal(file)
	if err != nil {
		return errs.New("dump", errs.KindJSONAlloc, err)
	}
	if len(data) > maxDumpBytes {
		return errs.New("dump", errs.KindJSONOverflow, fmt.Errorf("dump size %d exceeds %d byte cap", len(data), maxDumpBytes))
	}

	name := filename(time.Now())
	final := filepath.Join(w.dir, name)
	if err := atomicWrite(final, data); err != nil {
		return err
	}

	if w.index != nil {
		_ = w.index.Record(IndexRecord{
			Filename:    name,
			CreatedAtNs: int64(triggerTimestampNs),
			SizeBytes:   int64(len(data)),
			TriggerKind: triggerTypeNames[trigger.Kind],
		})
	}
	return nil
}

// filename builds "spike_YYYY-MM-DD_HH-MM-SS_<counter>.json" from local
// wall-clock time, using a monotonic counter to stay unique within one
// process-second.
func filename(now time.Time) string {
	n := atomic.AddUint64(&counter, 1)
	return fmt.Sprintf("spike_%s_%d.json", now.Format("2006-01-02_15-04-05"), n)
}

// atomicWrite writes data to <final>.tmp, fsyncs, closes, then renames it
// onto final. Any failure unlinks the temp file and returns a non-fatal
// error; final either ends up absent or a complete document.
func atomicWrite(final string, data []byte) error {
	tmp := final + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errs.New("dump", errs.KindDumpOpen, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return errs.New("dump", errs.KindDumpWrite, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errs.New("dump", errs.KindDumpWrite, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errs.New("dump", errs.KindDumpWrite, err)
	}

	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return errs.New("dump", errs.KindDumpRename, err)
	}
	return nil
}

func buildFile(window []snapshot.Snapshot, trigger anomaly.Result, triggerTimestampNs uint64, startedAt time.Time) File {
	snaps := make([]Snapshot, len(window))
	for i, s := range window {
		snaps[i] = toSnapshotJSON(s, triggerTimestampNs, startedAt)
	}

	return File{
		SchemaVersion:   SchemaVersion,
		CreatedAt:       time.Now().Format("2006-01-02T15:04:05-07:00"),
		UptimeSeconds:   time.Since(startedAt).Seconds(),
		DumpTimestampNs: triggerTimestampNs,
		Trigger:         toTriggerJSON(trigger),
		Snapshots:       snaps,
	}
}

func toSnapshotJSON(s snapshot.Snapshot, triggerTimestampNs uint64, startedAt time.Time) Snapshot {
	offsetSeconds := (float64(s.TimestampNs) - float64(triggerTimestampNs)) / 1e9

	procs := make([]Proc, len(s.TopByCPU))
	for i, p := range s.TopByCPU {
		procs[i] = toProcJSON(p)
	}
	topRSS := make([]Proc, len(s.TopByRSS))
	for i, p := range s.TopByRSS {
		topRSS[i] = toProcJSON(p)
	}

	return Snapshot{
		TimestampNs:   s.TimestampNs,
		UptimeSeconds: float64(s.TimestampNs-uint64(startedAt.UnixNano())) / 1e9,
		OffsetSeconds: offsetSeconds,
		CPU: CPU{
			GlobalPct:  s.CPU.GlobalPercent,
			PerCorePct: s.CPU.PerCorePct,
		},
		Mem: Mem{
			TotalKiB:     s.Mem.TotalKiB,
			TotalMiB:     kib2mib(s.Mem.TotalKiB),
			AvailableKiB: s.Mem.AvailableKiB,
			AvailableMiB: kib2mib(s.Mem.AvailableKiB),
			FreeKiB:      s.Mem.FreeKiB,
			FreeMiB:      kib2mib(s.Mem.FreeKiB),
			ActiveKiB:    s.Mem.ActiveKiB,
			InactiveKiB:  s.Mem.InactiveKiB,
			DirtyKiB:     s.Mem.DirtyKiB,
			SlabKiB:      s.Mem.SlabKiB,
			SwapTotalKiB: s.Mem.SwapTotalKiB,
			SwapTotalMiB: kib2mib(s.Mem.SwapTotalKiB),
			SwapFreeKiB:  s.Mem.SwapFreeKiB,
			SwapFreeMiB:  kib2mib(s.Mem.SwapFreeKiB),
			ShmemKiB:     s.Mem.ShmemKiB,
			UsedPct:      usedPct(s.Mem.TotalKiB, s.Mem.AvailableKiB),
		},
		Procs:       procs,
		TopRSSProcs: topRSS,
	}
}

func usedPct(totalKiB, availableKiB uint64) float64 {
	if totalKiB == 0 {
		return 0
	}
	return 100 * (float64(totalKiB) - float64(availableKiB)) / float64(totalKiB)
}

func toProcJSON(p snapshot.ProcEntry) Proc {
	return Proc{
		PID:    p.PID,
		Comm:   p.Comm,
		CPUPct: p.CPUPercent,
		RSSKiB: p.RSSKiB,
		RSSMiB: kib2mib(p.RSSKiB),
	}
}

var triggerDescriptions = map[anomaly.Kind]string{
	anomaly.KindCpuDelta:    "sustained CPU usage increase above the process's smoothed baseline",
	anomaly.KindCpuNewProc:  "newly observed process consuming CPU above the new-process threshold",
	anomaly.KindMemDrop:     "available memory dropped sharply below its smoothed baseline",
	anomaly.KindMemPressure: "system memory utilization crossed the pressure threshold",
	anomaly.KindSwapSpike:   "swap usage increased sharply above its smoothed baseline",
}

var triggerTypeNames = map[anomaly.Kind]string{
	anomaly.KindCpuDelta:    "cpu_delta",
	anomaly.KindCpuNewProc:  "cpu_new_process",
	anomaly.KindMemDrop:     "mem_drop",
	anomaly.KindMemPressure: "mem_pressure",
	anomaly.KindSwapSpike:   "swap_spike",
}

var scopeNames = map[anomaly.Scope]string{
	anomaly.ScopePerProcess:   "per_process",
	anomaly.ScopeProcessGroup: "process_group",
	anomaly.ScopeParent:       "parent",
	anomaly.ScopeSystemWide:   "system",
}

func toTriggerJSON(r anomaly.Result) Trigger {
	t := Trigger{
		Type:            triggerTypeNames[r.Kind],
		TypeDescription: triggerDescriptions[r.Kind],
		PID:             r.PID,
		Comm:            r.Comm,
		Policy: Policy{
			Scope:       scopeNames[r.ScopeKind],
			ScopeKey:    r.ScopeKey,
			Description: "cooldown suppresses repeat fires for this scope key until cooldown_seconds elapses",
		},
	}

	switch r.Kind {
	case anomaly.KindCpuDelta, anomaly.KindCpuNewProc:
		t.CPUPct = r.Current
		t.BaselinePct = r.Baseline
		t.DeltaPct = r.Delta
	case anomaly.KindMemDrop, anomaly.KindMemPressure:
		t.MemAvailableKiB = uint64(r.Current)
		t.MemAvailableMiB = kib2mib(uint64(r.Current))
		t.MemBaselineKiB = uint64(r.Baseline)
		t.MemDeltaKiB = r.Delta
	case anomaly.KindSwapSpike:
		t.SwapUsedKiB = uint64(r.Current)
		t.SwapBaselineKiB = uint64(r.Baseline)
		t.SwapDeltaKiB = r.Delta
	}

	return t
}
