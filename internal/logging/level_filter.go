package logging

// LevelFilter wraps a Writer and silently drops events below minLevel.
type LevelFilter struct {
	writer   Writer
	minLevel Level
}

// WithLevelFilter wraps w so only events at or above minLevel pass through.
func WithLevelFilter(w Writer, minLevel Level) *LevelFilter {
	return &LevelFilter{writer: w, minLevel: minLevel}
}

func (f *LevelFilter) Write(event Event) error {
	if event.Level < f.minLevel {
		return nil
	}
	return f.writer.Write(event)
}

func (f *LevelFilter) Close() error {
	return f.writer.Close()
}

var _ Writer = (*LevelFilter)(nil)
