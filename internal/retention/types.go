// Package retention implements the spike-dump housekeeper: a bbolt-backed
// index of dump metadata plus age/count/size cleanup policies that run on
// their own ticker, separate from the Supervisor's sampling loop.
package retention

// Policy selects which cleanup rule the housekeeper applies on each pass.
type Policy string

const (
	PolicyDisabled Policy = "disabled"
	PolicyByAge    Policy = "by_age"
	PolicyByCount  Policy = "by_count"
	PolicyBySize   Policy = "by_size"
)

// Config mirrors the [log_management] TOML section.
type Config struct {
	EnableAutoCleanup    bool
	CleanupPolicy        Policy
	MaxAgeDays           uint32
	MaxCount             uint32
	MaxTotalSizeMiB      uint32
	CleanupIntervalMins  uint32
}

// Record is one dump file's indexed metadata: enough to run every cleanup
// policy without re-stat-ing the output directory on every pass.
type Record struct {
	Filename    string
	CreatedAtNs int64
	SizeBytes   int64
	TriggerKind string
}
