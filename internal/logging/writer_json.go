package logging

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
)

const (
	dirPermissions  os.FileMode = 0o750
	filePermissions os.FileMode = 0o600
)

// JSONWriter appends one JSON object per line to a log file, used for the
// daemon's own operational log (distinct from the spike-dump files
// internal/dump produces).
type JSONWriter struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

// NewJSONWriter opens (creating if necessary) the JSON log file at path.
func NewJSONWriter(path string) (*JSONWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePermissions)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return &JSONWriter{file: file, encoder: json.NewEncoder(file)}, nil
}

func (w *JSONWriter) Write(event Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	entry := make(map[string]any, 4+len(event.Meta))
	entry["ts"] = event.Timestamp.Format(timestampFormat)
	entry["level"] = event.Level.String()
	if event.Component != "" {
		entry["component"] = event.Component
	}
	if event.Message != "" {
		entry["message"] = event.Message
	}
	maps.Copy(entry, event.Meta)

	return w.encoder.Encode(entry)
}

func (w *JSONWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

var _ Writer = (*JSONWriter)(nil)
