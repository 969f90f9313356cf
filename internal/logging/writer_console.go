package logging

import (
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

const (
	colorReset = "\033[0m"
	colorDebug = "\033[36m"
	colorInfo  = "\033[32m"
	colorWarn  = "\033[33m"
	colorError = "\033[31m"
)

// ConsoleWriter writes every event to stderr, per spec.md §7's "stderr
// lines prefixed with the component name" — spiketraced has no stdout
// output split by level, unlike an interactive tool.
type ConsoleWriter struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
}

// NewConsoleWriter builds a console writer with color auto-detected from
// whether stderr is a terminal.
func NewConsoleWriter() *ConsoleWriter {
	return NewConsoleWriterWithOptions(os.Stderr, isTerminal(os.Stderr))
}

// NewConsoleWriterWithOptions builds a console writer with explicit output
// and color settings, used by tests.
func NewConsoleWriterWithOptions(out io.Writer, color bool) *ConsoleWriter {
	return &ConsoleWriter{out: out, color: color}
}

func (w *ConsoleWriter) Write(event Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	line := formatText(event)
	if w.color {
		line = colorize(event.Level, line)
	}
	_, err := w.out.Write([]byte(line + "\n"))
	return err
}

func (w *ConsoleWriter) Close() error {
	return nil
}

func colorize(level Level, line string) string {
	var c string
	switch level {
	case LevelDebug:
		c = colorDebug
	case LevelInfo:
		c = colorInfo
	case LevelWarn:
		c = colorWarn
	case LevelError:
		c = colorError
	default:
		return line
	}
	return c + line + colorReset
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

var _ Writer = (*ConsoleWriter)(nil)
