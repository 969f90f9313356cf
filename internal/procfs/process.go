//go:build linux

package procfs

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

var (
	pageSizeOnce  sync.Once
	pageSizeBytes int64
)

// pageSize returns the runtime page size, falling back to the common 4KiB
// default if sysconf-equivalent lookup is unavailable.
func pageSize() int64 {
	pageSizeOnce.Do(func() {
		pageSizeBytes = int64(os.Getpagesize())
		if pageSizeBytes <= 0 {
			pageSizeBytes = 4096
		}
	})
	return pageSizeBytes
}

// ProcessReader decodes per-PID entries under /proc.
type ProcessReader struct {
	procPath string
}

// NewProcessReader returns a reader rooted at the real /proc.
func NewProcessReader() *ProcessReader {
	return &ProcessReader{procPath: defaultProcPath}
}

// NewProcessReaderWithPath returns a reader rooted at an arbitrary path.
func NewProcessReaderWithPath(path string) *ProcessReader {
	return &ProcessReader{procPath: path}
}

// ReadAll scans /proc for numeric directory entries and reads each one's
// stat+statm. A PID that vanishes between the directory scan and the file
// open (process exited mid-scan) is silently skipped rather than surfaced
// as an error, matching the "recoverable miss" policy for per-PID reads.
func (r *ProcessReader) ReadAll() ([]ProcStat, error) {
	entries, err := os.ReadDir(r.procPath)
	if err != nil {
		return nil, wrapOpen("procfs.process", err)
	}

	out := make([]ProcStat, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid <= 0 {
			continue
		}
		stat, ok := r.readOne(int32(pid))
		if !ok {
			continue
		}
		out = append(out, stat)
	}
	return out, nil
}

// readOne reads stat+statm for a single PID. ok is false on any read or
// parse failure, which the caller treats as a recoverable miss.
func (r *ProcessReader) readOne(pid int32) (ProcStat, bool) {
	statPath := r.procPath + "/" + strconv.Itoa(int(pid)) + "/stat"
	data, err := os.ReadFile(statPath)
	if err != nil {
		return ProcStat{}, false
	}

	stat, ok := parseStat(pid, string(data))
	if !ok {
		return ProcStat{}, false
	}

	statmPath := r.procPath + "/" + strconv.Itoa(int(pid)) + "/statm"
	rss, ok := readStatmRSSKiB(statmPath)
	if !ok {
		return ProcStat{}, false
	}
	stat.RSSKiB = rss
	return stat, true
}

// Field indices within /proc/<pid>/stat counted from just after the comm
// field's closing paren (state is field 0 in this local numbering).
const (
	statFieldState = iota
	statFieldPPID
	statFieldPGID
	statFieldSession
	statFieldTTY
	statFieldTPGID
	statFieldFlags
	statFieldMinFlt
	statFieldCMinFlt
	statFieldMajFlt
	statFieldCMajFlt
	statFieldUTime
	statFieldSTime
)

// minStatFields is the minimum field count after the comm close-paren
// required to reach utime/stime.
const minStatFields = statFieldSTime + 1

// parseStat decodes one /proc/<pid>/stat line. The comm name sits between
// the first '(' and the LAST ')': command names may themselves contain
// parentheses and spaces, so a naive first-")" match mis-attributes the
// fields that follow.
func parseStat(pid int32, data string) (ProcStat, bool) {
	start := strings.IndexByte(data, '(')
	end := strings.LastIndexByte(data, ')')
	if start < 0 || end < 0 || end <= start {
		return ProcStat{}, false
	}

	comm := data[start+1 : end]
	if len(comm) > 15 {
		comm = comm[:15]
	}

	rest := data[end+1:]
	fields := strings.Fields(rest)
	if len(fields) < minStatFields {
		return ProcStat{}, false
	}

	ppid, err1 := strconv.ParseInt(fields[statFieldPPID], 10, 32)
	pgid, err2 := strconv.ParseInt(fields[statFieldPGID], 10, 32)
	utime, err3 := strconv.ParseUint(fields[statFieldUTime], 10, 64)
	stime, err4 := strconv.ParseUint(fields[statFieldSTime], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return ProcStat{}, false
	}

	return ProcStat{
		PID:   pid,
		PPID:  int32(ppid),
		PGID:  int32(pgid),
		Comm:  comm,
		Ticks: utime + stime,
	}, true
}

// readStatmRSSKiB reads /proc/<pid>/statm and converts the resident page
// count into KiB.
func readStatmRSSKiB(path string) (uint64, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return 0, false
	}
	residentPages, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return residentPages * uint64(pageSize()) / 1024, true
}
