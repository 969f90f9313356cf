// Package config provides configuration types and TOML parsing for
// spiketraced: thresholds, sampling cadence, process collection limits,
// output location, feature toggles, and the log-management housekeeper.
package config

// Config is the root configuration structure, mirroring spec.md's TOML
// section layout one struct per [section].
type Config struct {
	AnomalyDetection  AnomalyDetectionConfig  `toml:"anomaly_detection"`
	Sampling          SamplingConfig          `toml:"sampling"`
	ProcessCollection ProcessCollectionConfig `toml:"process_collection"`
	Output            OutputConfig            `toml:"output"`
	Features          FeaturesConfig          `toml:"features"`
	Advanced          AdvancedConfig          `toml:"advanced"`
	Trigger           TriggerConfig           `toml:"trigger"`
	LogManagement     LogManagementConfig     `toml:"log_management"`
	ConfigPath        string                  `toml:"-"`
}

// AnomalyDetectionConfig is the [anomaly_detection] section.
type AnomalyDetectionConfig struct {
	CPUDeltaThresholdPct    float64 `toml:"cpu_delta_threshold_pct"`
	NewProcessThresholdPct  float64 `toml:"new_process_threshold_pct"`
	MemDropThresholdMiB     float64 `toml:"mem_drop_threshold_mib"`
	MemPressureThresholdPct float64 `toml:"mem_pressure_threshold_pct"`
	SwapSpikeThresholdMiB   float64 `toml:"swap_spike_threshold_mib"`
	CooldownSeconds         float64 `toml:"cooldown_seconds"`
}

// SamplingConfig is the [sampling] section.
type SamplingConfig struct {
	SamplingIntervalSeconds float64 `toml:"sampling_interval_seconds"`
	RingBufferCapacity      int     `toml:"ring_buffer_capacity"`
	ContextSnapshotsPerDump int     `toml:"context_snapshots_per_dump"`
}

// ProcessCollectionConfig is the [process_collection] section.
type ProcessCollectionConfig struct {
	MaxProcessesTracked int `toml:"max_processes_tracked"`
	TopProcessesStored  int `toml:"top_processes_stored"`
}

// OutputConfig is the [output] section.
type OutputConfig struct {
	OutputDirectory string `toml:"output_directory"`
}

// FeaturesConfig is the [features] section.
type FeaturesConfig struct {
	EnableCPUDetection        bool `toml:"enable_cpu_detection"`
	EnableMemoryDetection     bool `toml:"enable_memory_detection"`
	EnableSwapDetection       bool `toml:"enable_swap_detection"`
	AggregateRelatedProcesses bool `toml:"aggregate_related_processes"`
}

// AdvancedConfig is the [advanced] section.
type AdvancedConfig struct {
	MemoryBaselineAlpha  float64 `toml:"memory_baseline_alpha"`
	ProcessBaselineAlpha float64 `toml:"process_baseline_alpha"`
}

// Scope is the [trigger].scope cooldown grouping.
type Scope string

const (
	ScopePerProcess   Scope = "per_process"
	ScopeProcessGroup Scope = "process_group"
	ScopeParent       Scope = "parent"
	ScopeSystem       Scope = "system"
)

// TriggerConfig is the [trigger] section.
type TriggerConfig struct {
	Scope Scope `toml:"scope"`
}

// CleanupPolicy is the [log_management].cleanup_policy value.
type CleanupPolicy string

const (
	CleanupDisabled CleanupPolicy = "disabled"
	CleanupByAge    CleanupPolicy = "by_age"
	CleanupByCount  CleanupPolicy = "by_count"
	CleanupBySize   CleanupPolicy = "by_size"
)

// LogManagementConfig is the [log_management] section.
type LogManagementConfig struct {
	EnableAutoCleanup      bool          `toml:"enable_auto_cleanup"`
	CleanupPolicy          CleanupPolicy `toml:"cleanup_policy"`
	LogMaxAgeDays          uint32        `toml:"log_max_age_days"`
	LogMaxCount            uint32        `toml:"log_max_count"`
	LogMaxTotalSizeMiB     uint32        `toml:"log_max_total_size_mib"`
	CleanupIntervalMinutes uint32        `toml:"cleanup_interval_minutes"`
}
