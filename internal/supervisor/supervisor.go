// Package supervisor drives the sampling tick loop: collect a snapshot,
// push it into the ring buffer, evaluate it for anomalies, and write a
// forensic dump when one fires. It owns no OS processes — it supervises
// the sampling pipeline itself.
package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/kodflow/spiketrace/internal/anomaly"
	"github.com/kodflow/spiketrace/internal/config"
	"github.com/kodflow/spiketrace/internal/dump"
	"github.com/kodflow/spiketrace/internal/logging"
	"github.com/kodflow/spiketrace/internal/ringbuffer"
	"github.com/kodflow/spiketrace/internal/snapshot"
	"github.com/kodflow/spiketrace/internal/tracker"
)

// State represents the supervisor's lifecycle phase.
type State int

const (
	StateStarting State = iota
	StateRunning
	StateReloading
	StateStopping
)

// String renders the State for logging.
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateReloading:
		return "reloading"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Loader fetches a fresh Config from disk on reload. Kept as a function
// value rather than a hard dependency on config.Load so tests can swap in
// a fake without touching the filesystem.
type Loader func() (config.Config, error)

// Supervisor runs the sampling loop described by spec.md §4.7: every tick
// it checks for a pending reload, sleeps for the sampling interval,
// collects a snapshot, pushes it into the ring buffer, evaluates it, and
// writes a dump if an anomaly fires. Everything in this struct except cfg
// is owned exclusively by the goroutine running Run — a signal handler
// may only set flags (RequestReload, or canceling the context), never
// touch the tracker, ring buffer, detector, or writer directly.
type Supervisor struct {
	cfgMu sync.RWMutex
	cfg   config.Config

	stateMu sync.RWMutex
	state   State

	log    logging.Logger
	load   Loader
	writer *dump.Writer

	builder  *snapshot.Builder
	ring     *ringbuffer.Buffer[snapshot.Snapshot]
	detector *anomaly.State

	reloadCh chan struct{}
}

// New builds a Supervisor ready to Run. writer must already be configured
// (output directory created, retention index attached if enabled) — wiring
// it is the caller's responsibility, matching the hand-wired object graph
// cmd/spiketraced assembles without a DI framework.
func New(cfg config.Config, log logging.Logger, writer *dump.Writer, load Loader) *Supervisor {
	s := &Supervisor{
		log:      log,
		load:     load,
		writer:   writer,
		state:    StateStarting,
		reloadCh: make(chan struct{}, 1),
	}
	s.cfg = cfg
	s.rebuildPipeline(cfg)
	return s
}

// rebuildPipeline constructs the tracker, builder, and detector state from
// cfg. Called once from New and again on every successful reload. The ring
// buffer is kept across a reload when ring_buffer_capacity is unchanged;
// when the capacity changes it is replaced by a new, empty buffer.
func (s *Supervisor) rebuildPipeline(cfg config.Config) {
	trk := tracker.New(
		tracker.WithBaselineAlpha(cfg.Advanced.ProcessBaselineAlpha),
		tracker.WithMaxTracked(cfg.ProcessCollection.MaxProcessesTracked),
	)
	s.builder = snapshot.New(trk, snapshot.WithTopN(cfg.ProcessCollection.TopProcessesStored))
	s.detector = anomaly.NewState()

	if s.ring == nil || s.ring.Capacity() != cfg.Sampling.RingBufferCapacity {
		s.ring = ringbuffer.New[snapshot.Snapshot](cfg.Sampling.RingBufferCapacity)
	}
}

// State returns the current lifecycle phase.
func (s *Supervisor) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

func (s *Supervisor) setState(st State) {
	s.stateMu.Lock()
	s.state = st
	s.stateMu.Unlock()
}

// RequestReload flags that the next tick should reload configuration from
// disk. Safe to call from a signal handler: it only ever sends on a
// buffered channel, never touches the pipeline itself.
func (s *Supervisor) RequestReload() {
	select {
	case s.reloadCh <- struct{}{}:
	default:
	}
}

// Run executes the tick loop until ctx is canceled. Per spec.md §5 the
// loop is single-goroutine: config is read under RLock and copied before
// any I/O, and the ring buffer/detector are touched only here.
func (s *Supervisor) Run(ctx context.Context) error {
	s.setState(StateRunning)
	s.log.Info("supervisor", "sampling loop started", nil)
	defer func() {
		s.setState(StateStopping)
		s.log.Info("supervisor", "sampling loop stopped", nil)
	}()

	for {
		select {
		case <-s.reloadCh:
			s.reload()
		default:
		}

		interval := s.samplingInterval()
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}

		s.tick()
	}
}

// tick runs exactly one collect/push/evaluate/dump cycle.
func (s *Supervisor) tick() {
	snap := s.builder.Collect()
	s.ring.Push(snap)

	samples := s.builder.LastSamples()
	params := s.currentParams()

	result := anomaly.Evaluate(params.detect, s.detector, samples, snap.Mem, int64(snap.TimestampNs))
	if result.Kind == anomaly.KindNone {
		return
	}

	window := s.ring.GetRecent(params.contextSnapshots)
	if err := s.writer.Write(window, result, snap.TimestampNs); err != nil {
		s.log.Warn("supervisor", "dump write failed", map[string]any{"error": err.Error()})
		return
	}
	s.log.Info("supervisor", "anomaly dump written", map[string]any{
		"kind": result.Kind,
		"pid":  result.PID,
	})
}

// reload loads a fresh Config, swaps it in under lock, and re-initializes
// the detector state and process tracker tuning, exactly as spec.md §4.7
// requires. It runs on the sampling goroutine, never inside the signal
// handler that requested it.
func (s *Supervisor) reload() {
	s.setState(StateReloading)
	defer s.setState(StateRunning)

	if s.load == nil {
		s.log.Warn("supervisor", "reload requested but no loader configured", nil)
		return
	}

	cfg, err := s.load()
	if err != nil {
		s.log.Error("supervisor", "config reload failed, keeping previous configuration", map[string]any{"error": err.Error()})
		return
	}

	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()

	s.rebuildPipeline(cfg)
	s.log.Info("supervisor", "configuration reloaded", nil)
}

// samplingInterval snapshots just the one field the tick loop's sleep
// needs, never holding the lock across the sleep itself.
func (s *Supervisor) samplingInterval() time.Duration {
	s.cfgMu.RLock()
	seconds := s.cfg.Sampling.SamplingIntervalSeconds
	s.cfgMu.RUnlock()
	return time.Duration(seconds * float64(time.Second))
}

// tickParams is the config.Config subset a single tick needs, copied out
// from under the lock before evaluation and dump I/O run.
type tickParams struct {
	detect           anomaly.Params
	contextSnapshots int
}

// currentParams builds the tick's immutable parameter snapshot under RLock.
func (s *Supervisor) currentParams() tickParams {
	s.cfgMu.RLock()
	cfg := s.cfg
	s.cfgMu.RUnlock()

	return tickParams{
		detect:           ParamsFromConfig(cfg),
		contextSnapshots: cfg.Sampling.ContextSnapshotsPerDump,
	}
}

// ParamsFromConfig converts a config.Config's [anomaly_detection],
// [trigger], [features], and [advanced] sections into the anomaly
// package's Params, performing every unit and enum conversion the two
// packages disagree on: MiB to KiB, seconds to nanoseconds, and config's
// string-typed Scope to anomaly's int-typed Scope. Exported so callers
// outside the tick loop (tests, future introspection tooling) can derive
// the same Params without duplicating the conversion.
func ParamsFromConfig(cfg config.Config) anomaly.Params {
	return anomaly.Params{
		CPUDeltaThresholdPct:    cfg.AnomalyDetection.CPUDeltaThresholdPct,
		NewProcessThresholdPct:  cfg.AnomalyDetection.NewProcessThresholdPct,
		MemDropThresholdKiB:     cfg.AnomalyDetection.MemDropThresholdMiB * 1024,
		MemPressureThresholdPct: cfg.AnomalyDetection.MemPressureThresholdPct,
		SwapSpikeThresholdKiB:   cfg.AnomalyDetection.SwapSpikeThresholdMiB * 1024,
		CooldownNs:              int64(cfg.AnomalyDetection.CooldownSeconds * float64(time.Second)),
		Scope:                   toAnomalyScope(cfg.Trigger.Scope),
		MemoryBaselineAlpha:     cfg.Advanced.MemoryBaselineAlpha,
		EnableCPUDetection:      cfg.Features.EnableCPUDetection,
		EnableMemoryDetection:   cfg.Features.EnableMemoryDetection,
		EnableSwapDetection:     cfg.Features.EnableSwapDetection,
	}
}

// toAnomalyScope maps config's string-typed Scope onto anomaly's int enum.
func toAnomalyScope(s config.Scope) anomaly.Scope {
	switch s {
	case config.ScopeProcessGroup:
		return anomaly.ScopeProcessGroup
	case config.ScopeParent:
		return anomaly.ScopeParent
	case config.ScopeSystem:
		return anomaly.ScopeSystemWide
	default:
		return anomaly.ScopePerProcess
	}
}

