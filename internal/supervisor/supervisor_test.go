package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kodflow/spiketrace/internal/anomaly"
	"github.com/kodflow/spiketrace/internal/config"
	"github.com/kodflow/spiketrace/internal/dump"
	"github.com/kodflow/spiketrace/internal/logging"
)

type recordingWriter struct {
	events []logging.Event
}

func (r *recordingWriter) Write(event logging.Event) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingWriter) Close() error { return nil }

func newTestSupervisor(t *testing.T, cfg config.Config, load Loader) (*Supervisor, *recordingWriter) {
	t.Helper()
	cfg.Output.OutputDirectory = t.TempDir()
	rec := &recordingWriter{}
	log := logging.New(rec)
	w := dump.New(cfg.Output.OutputDirectory)
	return New(cfg, log, w, load), rec
}

func TestState_String(t *testing.T) {
	t.Parallel()

	cases := map[State]string{
		StateStarting:  "starting",
		StateRunning:   "running",
		StateReloading: "reloading",
		StateStopping:  "stopping",
		State(99):      "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}

func TestParamsFromConfig_ConvertsMiBToKiB(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.AnomalyDetection.MemDropThresholdMiB = 10
	cfg.AnomalyDetection.SwapSpikeThresholdMiB = 20

	p := ParamsFromConfig(cfg)
	if p.MemDropThresholdKiB != 10*1024 {
		t.Errorf("MemDropThresholdKiB = %v, want %v", p.MemDropThresholdKiB, 10*1024)
	}
	if p.SwapSpikeThresholdKiB != 20*1024 {
		t.Errorf("SwapSpikeThresholdKiB = %v, want %v", p.SwapSpikeThresholdKiB, 20*1024)
	}
}

func TestParamsFromConfig_ConvertsSecondsToNanoseconds(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.AnomalyDetection.CooldownSeconds = 2.5

	p := ParamsFromConfig(cfg)
	want := int64(2.5 * float64(time.Second))
	if p.CooldownNs != want {
		t.Errorf("CooldownNs = %d, want %d", p.CooldownNs, want)
	}
}

func TestParamsFromConfig_MapsScope(t *testing.T) {
	t.Parallel()

	cases := map[config.Scope]anomaly.Scope{
		config.ScopePerProcess:   anomaly.ScopePerProcess,
		config.ScopeProcessGroup: anomaly.ScopeProcessGroup,
		config.ScopeParent:       anomaly.ScopeParent,
		config.ScopeSystem:       anomaly.ScopeSystemWide,
	}
	for in, want := range cases {
		cfg := config.Default()
		cfg.Trigger.Scope = in
		if got := ParamsFromConfig(cfg).Scope; got != want {
			t.Errorf("scope %q mapped to %v, want %v", in, got, want)
		}
	}
}

func TestSupervisor_NewStartsInStartingState(t *testing.T) {
	t.Parallel()

	s, _ := newTestSupervisor(t, config.Default(), nil)
	if s.State() != StateStarting {
		t.Errorf("initial state = %v, want StateStarting", s.State())
	}
}

func TestSupervisor_RunTransitionsToRunningThenStopsOnCancel(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Sampling.SamplingIntervalSeconds = 0.01
	s, _ := newTestSupervisor(t, cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if s.State() != StateStopping {
		t.Errorf("final state = %v, want StateStopping", s.State())
	}
	if s.ring.Count() == 0 {
		t.Error("expected at least one tick to have pushed a snapshot")
	}
}

func TestSupervisor_Tick_PushesSnapshotIntoRing(t *testing.T) {
	t.Parallel()

	s, _ := newTestSupervisor(t, config.Default(), nil)
	before := s.ring.Count()
	s.tick()
	if s.ring.Count() != before+1 {
		t.Errorf("ring count after tick = %d, want %d", s.ring.Count(), before+1)
	}
}

func TestSupervisor_Reload_SwapsConfigAndResetsDetector(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	s, rec := newTestSupervisor(t, cfg, func() (config.Config, error) {
		newCfg := config.Default()
		newCfg.Output.OutputDirectory = cfg.Output.OutputDirectory
		newCfg.Sampling.RingBufferCapacity = cfg.Sampling.RingBufferCapacity + 5
		return newCfg, nil
	})

	oldRing := s.ring
	oldDetector := s.detector
	s.reload()

	if s.detector == oldDetector {
		t.Error("expected detector state to be re-initialized after reload")
	}
	if s.ring == oldRing {
		t.Error("expected ring buffer to be rebuilt after capacity change")
	}
	if s.ring.Capacity() != cfg.Sampling.RingBufferCapacity+5 {
		t.Errorf("new ring capacity = %d, want %d", s.ring.Capacity(), cfg.Sampling.RingBufferCapacity+5)
	}
	if s.State() != StateRunning {
		t.Errorf("state after reload = %v, want StateRunning", s.State())
	}

	foundReloadLog := false
	for _, ev := range rec.events {
		if ev.Message == "configuration reloaded" {
			foundReloadLog = true
		}
	}
	if !foundReloadLog {
		t.Error("expected an info log announcing the reload")
	}
}

func TestSupervisor_Reload_KeepsPreviousConfigOnLoaderError(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	loadErr := errors.New("disk error")
	s, rec := newTestSupervisor(t, cfg, func() (config.Config, error) {
		return config.Config{}, loadErr
	})

	s.reload()

	if s.cfg.Sampling.RingBufferCapacity != cfg.Sampling.RingBufferCapacity {
		t.Error("expected config to be left unchanged after a failed reload")
	}

	foundErrorLog := false
	for _, ev := range rec.events {
		if ev.Level == logging.LevelError {
			foundErrorLog = true
		}
	}
	if !foundErrorLog {
		t.Error("expected an error log for the failed reload")
	}
}

func TestSupervisor_RequestReload_IsNonBlockingWhenChannelFull(t *testing.T) {
	t.Parallel()

	s, _ := newTestSupervisor(t, config.Default(), nil)
	s.RequestReload()
	s.RequestReload() // must not block even though the channel has capacity 1
}
