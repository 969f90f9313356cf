//go:build linux

package procfs

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// Field indices within a /proc/stat CPU line, counting from the first
// numeric field after the "cpu"/"cpuN" label.
const (
	cpuFieldUser = iota
	cpuFieldNice
	cpuFieldSystem
	cpuFieldIdle
	cpuFieldIOWait
	cpuFieldIRQ
	cpuFieldSoftIRQ
	cpuFieldSteal
	cpuFieldGuest
	cpuFieldGuestNice
)

// minCPUFields is the minimum numeric field count accepted: user, nice,
// system, idle must be present; everything past that is optional.
const minCPUFields = 4

const defaultProcPath = "/proc"

// CPUReader decodes /proc/stat.
type CPUReader struct {
	procPath string
}

// NewCPUReader returns a reader rooted at the real /proc.
func NewCPUReader() *CPUReader {
	return &CPUReader{procPath: defaultProcPath}
}

// NewCPUReaderWithPath returns a reader rooted at an arbitrary path, for
// tests that stage a fake procfs tree.
func NewCPUReaderWithPath(path string) *CPUReader {
	return &CPUReader{procPath: path}
}

// ReadStat decodes every "cpu"-prefixed line of /proc/stat: the first
// ("cpu") is the aggregate, subsequent ("cpu0", "cpu1", ...) are per-core.
func (r *CPUReader) ReadStat() (CPUStat, error) {
	f, err := os.Open(r.procPath + "/stat")
	if err != nil {
		return CPUStat{}, wrapOpen("procfs.cpu", err)
	}
	defer f.Close()

	var stat CPUStat
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "cpu") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		label := fields[0]
		ticks, err := parseCPUFields(fields[1:])
		if err != nil {
			continue
		}
		if label == "cpu" {
			stat.Aggregate = ticks
		} else {
			stat.PerCore = append(stat.PerCore, ticks)
		}
	}
	if err := sc.Err(); err != nil {
		return stat, wrapParse("procfs.cpu", err)
	}
	return stat, nil
}

// parseCPUFields parses the numeric fields following a cpu/cpuN label.
// Fields past the required four are optional and default to 0 if missing
// or unparsable, matching procfs's tolerance for kernel-version skew.
func parseCPUFields(fields []string) (CPUTicks, error) {
	if len(fields) < minCPUFields {
		return CPUTicks{}, ErrShortLine
	}

	parseField := func(idx int) uint64 {
		if idx >= len(fields) {
			return 0
		}
		v, err := strconv.ParseUint(fields[idx], 10, 64)
		if err != nil {
			return 0
		}
		return v
	}

	return CPUTicks{
		User:      parseField(cpuFieldUser),
		Nice:      parseField(cpuFieldNice),
		System:    parseField(cpuFieldSystem),
		Idle:      parseField(cpuFieldIdle),
		IOWait:    parseField(cpuFieldIOWait),
		IRQ:       parseField(cpuFieldIRQ),
		SoftIRQ:   parseField(cpuFieldSoftIRQ),
		Steal:     parseField(cpuFieldSteal),
		Guest:     parseField(cpuFieldGuest),
		GuestNice: parseField(cpuFieldGuestNice),
	}, nil
}

// CorePercent computes per-core utilization percent between two readings,
// clamped to [0,100]. A zero or negative total delta (clock skew, first
// sample) reports 0 rather than dividing.
func CorePercent(prev, curr CPUTicks) float64 {
	totalDelta := saturatingSub(curr.Total(), prev.Total())
	if totalDelta == 0 {
		return 0
	}
	idleDelta := saturatingSub(curr.Idles(), prev.Idles())
	if idleDelta > totalDelta {
		return 0
	}
	pct := 100 * (1 - float64(idleDelta)/float64(totalDelta))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

func saturatingSub(a, b uint64) uint64 {
	if a <= b {
		return 0
	}
	return a - b
}
