package tablefile

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMarker reports that no stream contained a script marker.
	ErrNoMarker = errors.New("no script marker found")
	// ErrBelowPrintable reports that every marker hit failed the printable gate.
	ErrBelowPrintable = errors.New("binary sample below printable threshold")
	// ErrContainer reports that the compound document could not be parsed.
	ErrContainer = errors.New("unreadable container")
)

// ExtractionError describes why no script could be recovered from a container.
// Reason is one of the package sentinels; Err carries the underlying cause when
// there is one.
type ExtractionError struct {
	Stream string
	Reason error
	Err    error
}

func (e *ExtractionError) Error() string {
	msg := "extract script: " + e.Reason.Error()
	if e.Stream != "" {
		msg = fmt.Sprintf("%s (stream %s)", msg, e.Stream)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}
