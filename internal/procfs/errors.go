package procfs

import (
	"errors"

	"github.com/kodflow/spiketrace/internal/errs"
)

// ErrShortLine is returned when a procfs line has fewer fields than the
// minimum the parser requires.
var ErrShortLine = errors.New("procfs: line has too few fields")

// ErrNoCommDelims names the case of a /proc/<pid>/stat line missing the
// parenthesized comm field entirely. parseStat reports that case by
// returning ok=false; it does not return this error.
var ErrNoCommDelims = errors.New("procfs: comm field delimiters not found")

func wrapOpen(component string, err error) error {
	return errs.New(component, errs.KindOpenProcfs, err)
}

func wrapParse(component string, err error) error {
	return errs.New(component, errs.KindParseProcfs, err)
}
