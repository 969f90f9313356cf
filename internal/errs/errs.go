// Package errs defines the abstract error kinds shared across spiketrace's
// collection, detection, and dump subsystems.
package errs

import "fmt"

// Kind tags an error with the category a caller needs to decide how to react,
// independent of the underlying cause.
type Kind string

// Error kinds named by the specification's error handling policy.
const (
	KindParseProcfs  Kind = "parse_procfs"
	KindOpenProcfs   Kind = "open_procfs"
	KindInvalidParam Kind = "invalid_param"
	KindNullInput    Kind = "null_input"
	KindRingLock     Kind = "ring_lock"
	KindDumpOpen     Kind = "dump_open"
	KindDumpWrite    Kind = "dump_write"
	KindDumpRename   Kind = "dump_rename"
	KindJSONOverflow Kind = "json_overflow"
	KindJSONAlloc    Kind = "json_alloc"
	KindFsCreate     Kind = "fs_create"
	KindFsNotDir     Kind = "fs_not_dir"
	KindLogInUse     Kind = "log_in_use"
	KindLogDelete    Kind = "log_delete"
	KindOutOfMemory  Kind = "out_of_memory"
)

// Error wraps an underlying cause with a Kind and the component that raised it.
type Error struct {
	Kind      Kind
	Component string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Component, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Component, e.Kind, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error for the given component and kind.
func New(component string, kind Kind, cause error) *Error {
	return &Error{Kind: kind, Component: component, Cause: cause}
}

// Fatal formats a startup failure as "<component>: fatal: <cause>".
func Fatal(component string, cause error) string {
	return fmt.Sprintf("%s: fatal: %v", component, cause)
}
