package dump_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodflow/spiketrace/internal/anomaly"
	"github.com/kodflow/spiketrace/internal/dump"
	"github.com/kodflow/spiketrace/internal/snapshot"
)

func sampleWindow() []snapshot.Snapshot {
	return []snapshot.Snapshot{
		{
			TimestampNs: 4_000_000_000,
			CPU:         snapshot.CPUBlock{GlobalPercent: 55, PerCorePct: []float64{60, 50}},
			Mem:         snapshot.MemBlock{TotalKiB: 16 * 1024 * 1024, AvailableKiB: 8 * 1024 * 1024},
			TopByCPU:    []snapshot.ProcEntry{{PID: 1000, Comm: "worker", CPUPercent: 30, RSSKiB: 2048}},
			TopByRSS:    []snapshot.ProcEntry{{PID: 1000, Comm: "worker", CPUPercent: 30, RSSKiB: 2048}},
		},
		{
			TimestampNs: 3_000_000_000,
			CPU:         snapshot.CPUBlock{GlobalPercent: 40, PerCorePct: []float64{45, 35}},
			Mem:         snapshot.MemBlock{TotalKiB: 16 * 1024 * 1024, AvailableKiB: 9 * 1024 * 1024},
		},
	}
}

func TestWriter_Write_ProducesOnlyFinalFile(t *testing.T) {
	dir := t.TempDir()
	w := dump.New(dir)

	trigger := anomaly.Result{
		Kind: anomaly.KindCpuDelta, PID: 1000, Comm: "worker",
		Current: 30, Baseline: 10.22, Delta: 19.78,
		ScopeKind: anomaly.ScopePerProcess, ScopeKey: 1000,
	}

	err := w.Write(sampleWindow(), trigger, 4_000_000_000)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "exactly one file should remain, no .tmp leftovers")
	assert.NotContains(t, entries[0].Name(), ".tmp")
	assert.Regexp(t, `^spike_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}_\d+\.json$`, entries[0].Name())
}

func TestWriter_Write_SchemaAndOffsets(t *testing.T) {
	dir := t.TempDir()
	w := dump.New(dir)

	trigger := anomaly.Result{
		Kind: anomaly.KindCpuDelta, PID: 1000, Comm: "worker",
		Current: 30, Baseline: 10.22, Delta: 19.78,
		ScopeKind: anomaly.ScopePerProcess, ScopeKey: 1000,
	}

	require.NoError(t, w.Write(sampleWindow(), trigger, 4_000_000_000))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)

	var f dump.File
	require.NoError(t, json.Unmarshal(data, &f))

	assert.Equal(t, dump.SchemaVersion, f.SchemaVersion)
	assert.Equal(t, uint64(4_000_000_000), f.DumpTimestampNs)
	assert.Equal(t, "cpu_delta", f.Trigger.Type)
	assert.Equal(t, int32(1000), f.Trigger.PID)
	assert.InDelta(t, 19.78, f.Trigger.DeltaPct, 0.01)
	assert.Equal(t, "per_process", f.Trigger.Policy.Scope)

	require.Len(t, f.Snapshots, 2)
	// newest entry is the trigger itself: offset zero
	assert.InDelta(t, 0, f.Snapshots[0].OffsetSeconds, 1e-9)
	// second entry is one second earlier
	assert.InDelta(t, -1, f.Snapshots[1].OffsetSeconds, 1e-9)

	assert.Equal(t, uint64(16*1024*1024), f.Snapshots[0].Mem.TotalKiB)
	assert.InDelta(t, 16*1024, f.Snapshots[0].Mem.TotalMiB, 0.01)
	assert.InDelta(t, 50, f.Snapshots[0].Mem.UsedPct, 0.01)
}

func TestWriter_Write_EmptyWindowErrors(t *testing.T) {
	w := dump.New(t.TempDir())
	err := w.Write(nil, anomaly.Result{Kind: anomaly.KindCpuDelta}, 1)
	assert.Error(t, err)
}

func TestWriter_Write_UniqueFilenamesOnRepeatedCalls(t *testing.T) {
	dir := t.TempDir()
	w := dump.New(dir)
	trigger := anomaly.Result{Kind: anomaly.KindMemPressure}

	require.NoError(t, w.Write(sampleWindow(), trigger, 1))
	require.NoError(t, w.Write(sampleWindow(), trigger, 2))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "the monotonic counter must keep same-second dumps from colliding")
}
