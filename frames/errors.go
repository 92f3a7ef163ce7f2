package frames

import (
	"errors"
	"fmt"
)

var (
	// ErrLoopMode covers loop preconditions: a loop render needs at least two
	// frames and a draw function. Reported before any frame work begins.
	ErrLoopMode = errors.New("frames: loop mode error")

	// ErrEncode means the external video encoder exited non-zero. Terminal
	// for the request; scratch space is still cleaned up.
	ErrEncode = errors.New("frames: encode error")
)

// LoopError names the violated loop precondition.
type LoopError struct {
	Reason string
}

func (e *LoopError) Error() string { return "frames: loop mode error: " + e.Reason }

func (e *LoopError) Unwrap() error { return ErrLoopMode }

// EncodeError carries the encoder's exit details for diagnosis.
type EncodeError struct {
	Err    error
	Stderr string
}

func (e *EncodeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("frames: encode error: %v: %s", e.Err, e.Stderr)
	}
	return fmt.Sprintf("frames: encode error: %v", e.Err)
}

func (e *EncodeError) Unwrap() error { return ErrEncode }
