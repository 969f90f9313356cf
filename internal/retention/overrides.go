package retention

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// overridesDoc is the on-disk shape of an optional retention.yaml file,
// colocated with a dump output directory, letting an operator hand-tune
// that directory's cleanup policy without touching the main TOML config.
type overridesDoc struct {
	EnableAutoCleanup   *bool   `yaml:"enable_auto_cleanup"`
	CleanupPolicy       string  `yaml:"cleanup_policy"`
	MaxAgeDays          uint32  `yaml:"log_max_age_days"`
	MaxCount            uint32  `yaml:"log_max_count"`
	MaxTotalSizeMiB     uint32  `yaml:"log_max_total_size_mib"`
	CleanupIntervalMins uint32  `yaml:"cleanup_interval_minutes"`
}

// LoadOverrides reads path and merges it onto base, returning the merged
// Config. A missing file is not an error: base is returned unchanged.
func LoadOverrides(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return base, nil
	}
	if err != nil {
		return base, fmt.Errorf("reading retention overrides: %w", err)
	}

	var doc overridesDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return base, fmt.Errorf("parsing retention overrides: %w", err)
	}

	merged := base
	if doc.EnableAutoCleanup != nil {
		merged.EnableAutoCleanup = *doc.EnableAutoCleanup
	}
	if doc.CleanupPolicy != "" {
		merged.CleanupPolicy = Policy(doc.CleanupPolicy)
	}
	if doc.MaxAgeDays != 0 {
		merged.MaxAgeDays = doc.MaxAgeDays
	}
	if doc.MaxCount != 0 {
		merged.MaxCount = doc.MaxCount
	}
	if doc.MaxTotalSizeMiB != 0 {
		merged.MaxTotalSizeMiB = doc.MaxTotalSizeMiB
	}
	if doc.CleanupIntervalMins != 0 {
		merged.CleanupIntervalMins = doc.CleanupIntervalMins
	}
	return merged, nil
}
