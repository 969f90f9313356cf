package anomaly_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kodflow/spiketrace/internal/anomaly"
	"github.com/kodflow/spiketrace/internal/snapshot"
	"github.com/kodflow/spiketrace/internal/tracker"
)

func baseParams() anomaly.Params {
	return anomaly.Params{
		CPUDeltaThresholdPct:    10,
		NewProcessThresholdPct:  5,
		MemDropThresholdKiB:     512 * 1024,
		MemPressureThresholdPct: 90,
		SwapSpikeThresholdKiB:   256 * 1024,
		CooldownNs:              5_000_000_000,
		Scope:                   anomaly.ScopePerProcess,
		MemoryBaselineAlpha:     0.2,
		EnableCPUDetection:      true,
		EnableMemoryDetection:   true,
		EnableSwapDetection:     true,
	}
}

func TestEvaluate_SeedScenario1_CPUDelta(t *testing.T) {
	p := baseParams()
	state := anomaly.NewState()

	samples := []tracker.Sample{
		{PID: 1000, Comm: "worker", CPUPercent: 30.0, BaselineCPU: 10.22, SampleCount: 4},
	}

	r := anomaly.Evaluate(p, state, samples, snapshot.MemBlock{}, 4_000_000_000)
	assert.Equal(t, anomaly.KindCpuDelta, r.Kind)
	assert.Equal(t, int32(1000), r.PID)
	assert.InDelta(t, 19.78, r.Delta, 0.01)

	// Second evaluation immediately after: cooldown suppresses the same scope key.
	r2 := anomaly.Evaluate(p, state, samples, snapshot.MemBlock{}, 4_500_000_000)
	assert.Equal(t, anomaly.KindNone, r2.Kind)
}

func TestEvaluate_SeedScenario2_NewProcessBurst(t *testing.T) {
	p := baseParams()
	state := anomaly.NewState()

	samples := []tracker.Sample{
		{PID: 2000, Comm: "build", CPUPercent: 40, BaselineCPU: 40, SampleCount: 1, IsNew: true},
	}

	r := anomaly.Evaluate(p, state, samples, snapshot.MemBlock{}, 1_000_000_000)
	assert.Equal(t, anomaly.KindCpuNewProc, r.Kind)
	assert.Equal(t, int32(2000), r.PID)
}

func TestEvaluate_SeedScenario3_MemoryDrop(t *testing.T) {
	p := baseParams()
	p.EnableCPUDetection = false
	state := anomaly.NewState()

	gib := uint64(1024 * 1024)
	mem := func(availGiB uint64) snapshot.MemBlock {
		return snapshot.MemBlock{TotalKiB: 16 * gib, AvailableKiB: availGiB * gib}
	}
	samples := []tracker.Sample{{PID: 7, Comm: "leaker", RSSKiB: 9999}}

	r1 := anomaly.Evaluate(p, state, samples, mem(12), 1_000_000_000) // seed
	assert.Equal(t, anomaly.KindNone, r1.Kind)

	r2 := anomaly.Evaluate(p, state, samples, mem(12), 2_000_000_000) // steady
	assert.Equal(t, anomaly.KindNone, r2.Kind)

	r3 := anomaly.Evaluate(p, state, samples, mem(11), 3_000_000_000) // drop of 1 GiB
	assert.Equal(t, anomaly.KindMemDrop, r3.Kind)
	assert.Equal(t, int32(7), r3.PID)
}

func TestEvaluate_SeedScenario4_MemoryPressureNoDrop(t *testing.T) {
	p := baseParams()
	p.EnableCPUDetection = false
	state := anomaly.NewState()

	gib := uint64(1024 * 1024)
	mem1 := snapshot.MemBlock{TotalKiB: 16 * gib, AvailableKiB: 1 * gib}

	r1 := anomaly.Evaluate(p, state, nil, mem1, 1_000_000_000) // seeds baseline at the low value
	assert.Equal(t, anomaly.KindNone, r1.Kind)

	r2 := anomaly.Evaluate(p, state, nil, mem1, 2_000_000_000)
	assert.Equal(t, anomaly.KindMemPressure, r2.Kind)
}

func TestEvaluate_SeedScenario5_SwapSpike(t *testing.T) {
	p := baseParams()
	p.EnableCPUDetection = false
	p.EnableMemoryDetection = false
	state := anomaly.NewState()

	gib := uint64(1024 * 1024)
	mem1 := snapshot.MemBlock{SwapTotalKiB: 4 * gib, SwapFreeKiB: 4 * gib}
	mem2 := snapshot.MemBlock{SwapTotalKiB: 4 * gib, SwapFreeKiB: 4*gib - 512*1024}

	r1 := anomaly.Evaluate(p, state, nil, mem1, 1_000_000_000) // seeds used=0
	assert.Equal(t, anomaly.KindNone, r1.Kind)

	r2 := anomaly.Evaluate(p, state, nil, mem2, 2_000_000_000)
	assert.Equal(t, anomaly.KindSwapSpike, r2.Kind)
	assert.InDelta(t, 512*1024, r2.Delta, 1)
}

func TestEvaluate_CooldownZero_AllowsBackToBack(t *testing.T) {
	p := baseParams()
	p.CooldownNs = 0
	state := anomaly.NewState()

	samples := []tracker.Sample{{PID: 9, CPUPercent: 30, BaselineCPU: 5, SampleCount: 4}}
	r1 := anomaly.Evaluate(p, state, samples, snapshot.MemBlock{}, 1_000_000_000)
	r2 := anomaly.Evaluate(p, state, samples, snapshot.MemBlock{}, 1_000_000_000)

	assert.Equal(t, anomaly.KindCpuDelta, r1.Kind)
	assert.Equal(t, anomaly.KindCpuDelta, r2.Kind)
}

func TestEvaluate_Idempotence(t *testing.T) {
	p := baseParams()
	state1 := anomaly.NewState()
	state2 := anomaly.NewState()
	samples := []tracker.Sample{{PID: 1, CPUPercent: 30, BaselineCPU: 5, SampleCount: 4}}

	r1 := anomaly.Evaluate(p, state1, samples, snapshot.MemBlock{}, 1_000_000_000)
	r2 := anomaly.Evaluate(p, state2, samples, snapshot.MemBlock{}, 1_000_000_000)
	assert.Equal(t, r1, r2)
}

func TestCooldownTable_EvictsOldestWhenFull(t *testing.T) {
	table := anomaly.NewCooldownTable()
	for i := int64(0); i < 64; i++ {
		table.Record(i, i)
	}
	assert.Equal(t, 64, table.Len())

	table.Record(1000, 1000) // evicts key 0, the oldest
	assert.Equal(t, 64, table.Len())
	assert.False(t, table.Active(0, 1000, 10000))
}
