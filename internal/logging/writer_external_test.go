package logging_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kodflow/spiketrace/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleWriter_WritesFormattedLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := logging.NewConsoleWriterWithOptions(&buf, false)

	err := w.Write(logging.Event{
		Level:     logging.LevelWarn,
		Component: "retention",
		Message:   "cleanup interval not yet elapsed",
		Meta:      map[string]any{"remaining_s": 12},
	})
	require.NoError(t, err)

	line := buf.String()
	assert.True(t, strings.Contains(line, "[WARN]"))
	assert.True(t, strings.Contains(line, "retention: cleanup interval not yet elapsed"))
	assert.True(t, strings.Contains(line, "remaining_s=12"))
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestConsoleWriter_Close_IsNoop(t *testing.T) {
	t.Parallel()

	w := logging.NewConsoleWriterWithOptions(&bytes.Buffer{}, false)
	assert.NoError(t, w.Close())
}

func TestJSONWriter_WritesOneObjectPerLine(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "spiketraced.jsonl")
	w, err := logging.NewJSONWriter(path)
	require.NoError(t, err)

	require.NoError(t, w.Write(logging.Event{
		Level:     logging.LevelError,
		Component: "dump",
		Message:   "write failed",
		Meta:      map[string]any{"pid": 4242},
	}))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "dump", entry["component"])
	assert.Equal(t, "write failed", entry["message"])
	assert.Equal(t, float64(4242), entry["pid"])
	assert.False(t, scanner.Scan())
}

func TestLevelFilter_DropsBelowMinimum(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	inner := logging.NewConsoleWriterWithOptions(&buf, false)
	filtered := logging.WithLevelFilter(inner, logging.LevelWarn)

	require.NoError(t, filtered.Write(logging.Event{Level: logging.LevelInfo, Message: "ignored"}))
	assert.Empty(t, buf.String())

	require.NoError(t, filtered.Write(logging.Event{Level: logging.LevelError, Message: "kept"}))
	assert.Contains(t, buf.String(), "kept")
}

func TestBuild_ConsoleOnlyWhenNoJSONPath(t *testing.T) {
	t.Parallel()

	logger, err := logging.Build("", logging.LevelInfo)
	require.NoError(t, err)
	require.NoError(t, logger.Close())
}

func TestBuild_WritesBothConsoleAndJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "daemon.jsonl")
	logger, err := logging.Build(path, logging.LevelDebug)
	require.NoError(t, err)

	logger.Info("supervisor", "started", nil)
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"component\":\"supervisor\"")
}
