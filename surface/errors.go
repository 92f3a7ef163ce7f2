package surface

import (
	"errors"
	"fmt"
)

// ErrProtocolViolation marks drawing calls the fixed-canvas contract forbids.
// Violations are reported verbatim and never auto-corrected.
var ErrProtocolViolation = errors.New("surface: protocol violation")

// ViolationError names the offending operation.
type ViolationError struct {
	Op     string
	Detail string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("surface: protocol violation: %s: %s", e.Op, e.Detail)
}

func (e *ViolationError) Unwrap() error { return ErrProtocolViolation }
