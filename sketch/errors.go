package sketch

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout means the artist code exceeded the hard wall-clock cap.
	// The interpreter is torn down; no partial frame is ever returned.
	ErrTimeout = errors.New("sketch: execution timeout")

	// ErrNoDraw means loop mode was requested but the artist code defines no
	// draw function. There is no silent fallback to static mode.
	ErrNoDraw = errors.New("sketch: loop mode requires a draw function")
)

// CodeError wraps a failure raised by the artist code itself (syntax errors,
// thrown exceptions). The phase names where it happened: compile, setup, draw.
type CodeError struct {
	Phase string
	Err   error
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("sketch: artist code failed during %s: %v", e.Phase, e.Err)
}

func (e *CodeError) Unwrap() error { return e.Err }
