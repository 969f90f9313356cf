package config

import (
	"fmt"
	"math"
	"strings"
)

// bound clamps value to def whenever it falls outside [min, max], appending
// a human-readable warning to warnings. Matches config.c's
// config_validate: out-of-range values are silently unusable, so every
// field is restored to its default rather than rejecting the whole file.
func bound(field string, value, min, max, def float64, warnings *[]string) float64 {
	if math.IsNaN(value) || value < min || value > max {
		*warnings = append(*warnings, fmt.Sprintf("%s out of range (%v), clamped to default %v", field, value, def))
		return def
	}
	return value
}

// ClampToValidRanges enforces every bound spec.md §6 names, mutating cfg in
// place and returning one warning per field that was clamped.
func ClampToValidRanges(cfg *Config) []string {
	var warnings []string
	def := Default()

	a := &cfg.AnomalyDetection
	a.CPUDeltaThresholdPct = bound("cpu_delta_threshold_pct", a.CPUDeltaThresholdPct, 0.1, 100, def.AnomalyDetection.CPUDeltaThresholdPct, &warnings)
	a.NewProcessThresholdPct = bound("new_process_threshold_pct", a.NewProcessThresholdPct, 0.1, 100, def.AnomalyDetection.NewProcessThresholdPct, &warnings)
	a.MemDropThresholdMiB = bound("mem_drop_threshold_mib", a.MemDropThresholdMiB, 1, 1048576, def.AnomalyDetection.MemDropThresholdMiB, &warnings)
	a.MemPressureThresholdPct = bound("mem_pressure_threshold_pct", a.MemPressureThresholdPct, 50, 100, def.AnomalyDetection.MemPressureThresholdPct, &warnings)
	a.SwapSpikeThresholdMiB = bound("swap_spike_threshold_mib", a.SwapSpikeThresholdMiB, 1, 1048576, def.AnomalyDetection.SwapSpikeThresholdMiB, &warnings)
	a.CooldownSeconds = bound("cooldown_seconds", a.CooldownSeconds, 0.1, 300, def.AnomalyDetection.CooldownSeconds, &warnings)

	s := &cfg.Sampling
	s.SamplingIntervalSeconds = bound("sampling_interval_seconds", s.SamplingIntervalSeconds, 0.1, 10, def.Sampling.SamplingIntervalSeconds, &warnings)
	s.RingBufferCapacity = int(bound("ring_buffer_capacity", float64(s.RingBufferCapacity), 10, 600, float64(def.Sampling.RingBufferCapacity), &warnings))
	s.ContextSnapshotsPerDump = int(bound("context_snapshots_per_dump", float64(s.ContextSnapshotsPerDump), 1, 60, float64(def.Sampling.ContextSnapshotsPerDump), &warnings))
	if s.ContextSnapshotsPerDump > s.RingBufferCapacity {
		warnings = append(warnings, fmt.Sprintf("context_snapshots_per_dump (%d) > ring_buffer_capacity (%d), clamped to ring capacity", s.ContextSnapshotsPerDump, s.RingBufferCapacity))
		s.ContextSnapshotsPerDump = s.RingBufferCapacity
	}

	p := &cfg.ProcessCollection
	p.MaxProcessesTracked = int(bound("max_processes_tracked", float64(p.MaxProcessesTracked), 10, 1024, float64(def.ProcessCollection.MaxProcessesTracked), &warnings))
	p.TopProcessesStored = int(bound("top_processes_stored", float64(p.TopProcessesStored), 1, 50, float64(def.ProcessCollection.TopProcessesStored), &warnings))
	if p.TopProcessesStored > p.MaxProcessesTracked {
		warnings = append(warnings, fmt.Sprintf("top_processes_stored (%d) > max_processes_tracked (%d), clamped to tracked limit", p.TopProcessesStored, p.MaxProcessesTracked))
		p.TopProcessesStored = p.MaxProcessesTracked
	}

	if cfg.Output.OutputDirectory != "" && !isSafeAbsolutePath(cfg.Output.OutputDirectory) {
		warnings = append(warnings, fmt.Sprintf("output_directory %q must be an absolute path with no .. components, using default", cfg.Output.OutputDirectory))
		cfg.Output.OutputDirectory = def.Output.OutputDirectory
	}

	f := &cfg.Features
	if !f.EnableCPUDetection && !f.EnableMemoryDetection && !f.EnableSwapDetection {
		warnings = append(warnings, "at least one detection type must be enabled, enabling all")
		f.EnableCPUDetection = true
		f.EnableMemoryDetection = true
		f.EnableSwapDetection = true
	}

	adv := &cfg.Advanced
	adv.MemoryBaselineAlpha = bound("memory_baseline_alpha", adv.MemoryBaselineAlpha, 0.01, 0.9, def.Advanced.MemoryBaselineAlpha, &warnings)
	adv.ProcessBaselineAlpha = bound("process_baseline_alpha", adv.ProcessBaselineAlpha, 0.01, 0.9, def.Advanced.ProcessBaselineAlpha, &warnings)

	switch cfg.Trigger.Scope {
	case ScopePerProcess, ScopeProcessGroup, ScopeParent, ScopeSystem:
	default:
		warnings = append(warnings, fmt.Sprintf("trigger.scope %q invalid, defaulting to per_process", cfg.Trigger.Scope))
		cfg.Trigger.Scope = ScopePerProcess
	}

	l := &cfg.LogManagement
	switch l.CleanupPolicy {
	case CleanupDisabled, CleanupByAge, CleanupByCount, CleanupBySize:
	default:
		warnings = append(warnings, fmt.Sprintf("log_management.cleanup_policy %q invalid, defaulting to disabled", l.CleanupPolicy))
		l.CleanupPolicy = CleanupDisabled
	}
	l.LogMaxAgeDays = uint32(bound("log_max_age_days", float64(l.LogMaxAgeDays), 1, 365, float64(def.LogManagement.LogMaxAgeDays), &warnings))
	l.LogMaxCount = uint32(bound("log_max_count", float64(l.LogMaxCount), 1, 10000, float64(def.LogManagement.LogMaxCount), &warnings))
	l.LogMaxTotalSizeMiB = uint32(bound("log_max_total_size_mib", float64(l.LogMaxTotalSizeMiB), 1, 100*1024, float64(def.LogManagement.LogMaxTotalSizeMiB), &warnings))
	l.CleanupIntervalMinutes = uint32(bound("cleanup_interval_minutes", float64(l.CleanupIntervalMinutes), 1, 24*60, float64(def.LogManagement.CleanupIntervalMinutes), &warnings))

	return warnings
}

// isSafeAbsolutePath requires an absolute path with no ".." traversal
// components, per spec.md's output_directory constraint.
func isSafeAbsolutePath(path string) bool {
	if !strings.HasPrefix(path, "/") {
		return false
	}
	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
