//go:build linux

package procfs

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// memLabels maps a /proc/meminfo label to the MemInfo field it fills.
// Every other label in the file is ignored.
var memLabels = map[string]func(*MemInfo, uint64){
	"MemTotal":     func(m *MemInfo, v uint64) { m.TotalKiB = v },
	"MemFree":      func(m *MemInfo, v uint64) { m.FreeKiB = v },
	"MemAvailable": func(m *MemInfo, v uint64) { m.AvailableKiB = v },
	"Active":       func(m *MemInfo, v uint64) { m.ActiveKiB = v },
	"Inactive":     func(m *MemInfo, v uint64) { m.InactiveKiB = v },
	"Dirty":        func(m *MemInfo, v uint64) { m.DirtyKiB = v },
	"Slab":         func(m *MemInfo, v uint64) { m.SlabKiB = v },
	"SwapTotal":    func(m *MemInfo, v uint64) { m.SwapTotalKiB = v },
	"SwapFree":     func(m *MemInfo, v uint64) { m.SwapFreeKiB = v },
	"Shmem":        func(m *MemInfo, v uint64) { m.ShmemKiB = v },
}

// MemReader decodes /proc/meminfo.
type MemReader struct {
	procPath string
}

// NewMemReader returns a reader rooted at the real /proc.
func NewMemReader() *MemReader {
	return &MemReader{procPath: defaultProcPath}
}

// NewMemReaderWithPath returns a reader rooted at an arbitrary path.
func NewMemReaderWithPath(path string) *MemReader {
	return &MemReader{procPath: path}
}

// ReadMemInfo decodes the tracked labels of /proc/meminfo. Labels absent
// from the file are left at their zero value.
func (r *MemReader) ReadMemInfo() (MemInfo, error) {
	f, err := os.Open(r.procPath + "/meminfo")
	if err != nil {
		return MemInfo{}, wrapOpen("procfs.mem", err)
	}
	defer f.Close()

	var info MemInfo
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		label, value, ok := parseMemInfoLine(sc.Text())
		if !ok {
			continue
		}
		if set, known := memLabels[label]; known {
			set(&info, value)
		}
	}
	if err := sc.Err(); err != nil {
		return info, wrapParse("procfs.mem", err)
	}
	return info, nil
}

// parseMemInfoLine splits a "Label:     12345 kB" line into its label and
// KiB value. Lines without a colon or a parseable number are rejected.
func parseMemInfoLine(line string) (label string, value uint64, ok bool) {
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return "", 0, false
	}
	label = line[:colon]
	fields := strings.Fields(line[colon+1:])
	if len(fields) == 0 {
		return "", 0, false
	}
	v, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return label, v, true
}
