package retention

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/kodflow/spiketrace/internal/logging"
)

const nsPerDay = 24 * 60 * 60 * 1_000_000_000
const nsPerMinute = 60 * 1_000_000_000

// Housekeeper applies one Config's cleanup policy against the dump
// directory's indexed metadata. It holds no lock across the filesystem
// I/O it performs, so it is always safe to run concurrently with the
// Supervisor's own dump writes.
type Housekeeper struct {
	dir           string
	index         *Index
	cfg           Config
	lastCleanupNs int64
}

// NewHousekeeper builds a Housekeeper over dir's dump files, indexed by idx.
func NewHousekeeper(dir string, idx *Index, cfg Config) *Housekeeper {
	return &Housekeeper{dir: dir, index: idx, cfg: cfg}
}

// SetConfig installs a new policy, taking effect on the next Tick.
func (h *Housekeeper) SetConfig(cfg Config) {
	h.cfg = cfg
}

// checkInterval is how often Run wakes to check whether a cleanup pass is
// due. It is independent of cfg.CleanupIntervalMins, which Tick enforces
// internally — this just bounds how promptly a config change takes effect.
const checkInterval = 30 * time.Second

// Run polls Tick on its own ticker until ctx is canceled. It never shares
// the Supervisor's config mutex and never holds a lock across filesystem
// I/O: SetConfig is a plain value swap, and Tick/RunCleanup read h.cfg
// without synchronization, safe because Run is the only writer besides
// SetConfig and both run on goroutines that never touch the sampling loop.
func (h *Housekeeper) Run(ctx context.Context, log logging.Logger) {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := h.Tick(time.Now().UnixNano())
			if err != nil {
				log.Warn("retention", "cleanup pass failed", map[string]any{"error": err.Error()})
				continue
			}
			if deleted > 0 {
				log.Info("retention", "cleanup pass removed dump files", map[string]any{"deleted": deleted})
			}
		}
	}
}

// Tick runs the configured cleanup policy if enough time has elapsed since
// the last run, mirroring the original daemon's auto-cleanup interval gate.
func (h *Housekeeper) Tick(nowNs int64) (int, error) {
	if !h.cfg.EnableAutoCleanup || h.cfg.CleanupPolicy == PolicyDisabled {
		return 0, nil
	}

	intervalNs := int64(h.cfg.CleanupIntervalMins) * nsPerMinute
	if h.lastCleanupNs > 0 && nowNs > h.lastCleanupNs && nowNs-h.lastCleanupNs < intervalNs {
		return 0, nil
	}

	deleted, err := h.RunCleanup(nowNs)
	h.lastCleanupNs = nowNs
	return deleted, err
}

// RunCleanup applies the configured policy immediately, bypassing the
// interval gate. Used by Tick and by a manual operator-triggered cleanup.
func (h *Housekeeper) RunCleanup(nowNs int64) (int, error) {
	records, err := h.index.All()
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	switch h.cfg.CleanupPolicy {
	case PolicyByAge:
		return h.cleanupByAge(records, nowNs)
	case PolicyByCount:
		return h.cleanupByCount(records)
	case PolicyBySize:
		return h.cleanupBySize(records)
	default:
		return 0, nil
	}
}

func (h *Housekeeper) cleanupByAge(records []Record, nowNs int64) (int, error) {
	maxAgeNs := int64(h.cfg.MaxAgeDays) * nsPerDay
	deleted := 0
	for _, rec := range records {
		if nowNs-rec.CreatedAtNs > maxAgeNs {
			if err := h.delete(rec); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	return deleted, nil
}

func (h *Housekeeper) cleanupByCount(records []Record) (int, error) {
	if uint32(len(records)) <= h.cfg.MaxCount {
		return 0, nil
	}

	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAtNs < records[j].CreatedAtNs })

	toDelete := len(records) - int(h.cfg.MaxCount)
	deleted := 0
	for _, rec := range records[:toDelete] {
		if err := h.delete(rec); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (h *Housekeeper) cleanupBySize(records []Record) (int, error) {
	var total int64
	for _, rec := range records {
		total += rec.SizeBytes
	}

	maxBytes := int64(h.cfg.MaxTotalSizeMiB) * 1024 * 1024
	if total <= maxBytes {
		return 0, nil
	}

	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAtNs < records[j].CreatedAtNs })

	toFree := total - maxBytes
	var freed int64
	deleted := 0
	for _, rec := range records {
		if freed >= toFree {
			break
		}
		if err := h.delete(rec); err != nil {
			return deleted, err
		}
		freed += rec.SizeBytes
		deleted++
	}
	return deleted, nil
}

// delete removes both the dump file and its index entry. A file already
// gone (ENOENT) is treated as success, matching the upstream tool's
// idempotent delete semantics.
func (h *Housekeeper) delete(rec Record) error {
	path := filepath.Join(h.dir, rec.Filename)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return h.index.Delete(rec.CreatedAtNs)
}
