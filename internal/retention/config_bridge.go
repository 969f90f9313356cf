package retention

import "github.com/kodflow/spiketrace/internal/config"

// ConfigFromLogManagement converts config.Config's [log_management]
// section into this package's Config, renaming fields to retention's own
// naming (MaxAgeDays/MaxCount/MaxTotalSizeMiB/CleanupIntervalMins) and
// converting config's CleanupPolicy string-type into retention's distinct
// Policy string-type — the two are never interchangeable even though
// their underlying values match, so the conversion is explicit rather
// than a raw type assertion.
func ConfigFromLogManagement(lm config.LogManagementConfig) Config {
	return Config{
		EnableAutoCleanup:   lm.EnableAutoCleanup,
		CleanupPolicy:       Policy(lm.CleanupPolicy),
		MaxAgeDays:          lm.LogMaxAgeDays,
		MaxCount:            lm.LogMaxCount,
		MaxTotalSizeMiB:     lm.LogMaxTotalSizeMiB,
		CleanupIntervalMins: lm.CleanupIntervalMinutes,
	}
}
