package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrUnmappedAnnotation reports an RM_ token with no rule in the
	// backend's table.
	ErrUnmappedAnnotation = errors.New("unmapped backend annotation")

	// ErrCapabilityGap reports an annotation the backend cannot honour,
	// such as per-group shared memory under host emulation.
	ErrCapabilityGap = errors.New("annotation not supported by backend")

	// ErrUnknownBackend reports a backend name Lookup does not know.
	ErrUnknownBackend = errors.New("unknown backend")
)

// Error describes a failed translation. It wraps one of the sentinel errors
// above so callers can test with errors.Is.
type Error struct {
	Backend string
	Token   string
	Line    int
	Err     error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s backend: line %d: %s: %v", e.Backend, e.Line, e.Token, e.Err)
	}
	return fmt.Sprintf("%s backend: %s: %v", e.Backend, e.Token, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
