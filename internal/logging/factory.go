package logging

// Build constructs the daemon's logger: a console writer always on, plus a
// JSON file writer when jsonLogPath is non-empty. minLevel filters both.
func Build(jsonLogPath string, minLevel Level) (Logger, error) {
	writers := []Writer{WithLevelFilter(NewConsoleWriter(), minLevel)}

	if jsonLogPath != "" {
		jw, err := NewJSONWriter(jsonLogPath)
		if err != nil {
			return nil, err
		}
		writers = append(writers, WithLevelFilter(jw, minLevel))
	}

	return New(writers...), nil
}
