package config

// Default returns the built-in configuration, matching
// original_source/src/config.c's config_init_defaults.
func Default() Config {
	return Config{
		AnomalyDetection: AnomalyDetectionConfig{
			CPUDeltaThresholdPct:    10.0,
			NewProcessThresholdPct:  5.0,
			MemDropThresholdMiB:     512,
			MemPressureThresholdPct: 90.0,
			SwapSpikeThresholdMiB:   256,
			CooldownSeconds:         5.0,
		},
		Sampling: SamplingConfig{
			SamplingIntervalSeconds: 1.0,
			RingBufferCapacity:      60,
			ContextSnapshotsPerDump: 10,
		},
		ProcessCollection: ProcessCollectionConfig{
			MaxProcessesTracked: 512,
			TopProcessesStored:  10,
		},
		Output: OutputConfig{
			OutputDirectory: "/var/lib/spiketrace/dumps",
		},
		Features: FeaturesConfig{
			EnableCPUDetection:        true,
			EnableMemoryDetection:     true,
			EnableSwapDetection:       true,
			AggregateRelatedProcesses: false,
		},
		Advanced: AdvancedConfig{
			MemoryBaselineAlpha:  0.2,
			ProcessBaselineAlpha: 0.3,
		},
		Trigger: TriggerConfig{
			Scope: ScopePerProcess,
		},
		LogManagement: LogManagementConfig{
			EnableAutoCleanup:      false,
			CleanupPolicy:          CleanupDisabled,
			LogMaxAgeDays:          30,
			LogMaxCount:            100,
			LogMaxTotalSizeMiB:     512,
			CleanupIntervalMinutes: 60,
		},
	}
}
