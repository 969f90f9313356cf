package procfs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodflow/spiketrace/internal/procfs"
)

func TestMemReader_ReadMemInfo(t *testing.T) {
	dir := t.TempDir()
	contents := "MemTotal:       16384000 kB\n" +
		"MemFree:         1024000 kB\n" +
		"MemAvailable:    4096000 kB\n" +
		"Active:          5000000 kB\n" +
		"Inactive:        2000000 kB\n" +
		"Dirty:              1000 kB\n" +
		"Slab:              500000 kB\n" +
		"SwapTotal:       4194304 kB\n" +
		"SwapFree:        4194304 kB\n" +
		"Shmem:             200000 kB\n" +
		"VmallocTotal:   34359738367 kB\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "meminfo"), []byte(contents), 0o644))

	r := procfs.NewMemReaderWithPath(dir)
	info, err := r.ReadMemInfo()
	require.NoError(t, err)

	assert.Equal(t, uint64(16384000), info.TotalKiB)
	assert.Equal(t, uint64(4096000), info.AvailableKiB)
	assert.Equal(t, uint64(4194304), info.SwapTotalKiB)
}

func TestMemReader_ReadMemInfo_MissingLabelDefaultsZero(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "meminfo"), []byte("MemTotal: 1000 kB\n"), 0o644))

	r := procfs.NewMemReaderWithPath(dir)
	info, err := r.ReadMemInfo()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), info.SwapTotalKiB)
}
